package models

import "time"

// Payment rows live in the payment service store, keyed by order.
type Payment struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type StripePaymentRequest struct {
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Token     string  `json:"token"`
	PaymentID string  `json:"payment_id,omitempty"`
}

type StripePaymentResponse struct {
	PaymentID       string `json:"payment_id"`
	OrderID         string `json:"order_id"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	Message         string `json:"message,omitempty"`
}
