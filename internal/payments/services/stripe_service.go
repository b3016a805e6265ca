package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"songforge/internal/logger"
	"songforge/internal/models"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeService handles integration with the Stripe payment gateway.
type StripeService struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeService(secretKey string, log *logger.Logger) (*StripeService, error) {
	if secretKey == "" {
		log.Error("STRIPE", "Stripe secret key not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized")
	return &StripeService{client: sc, log: log}, nil
}

// ProcessPayment charges a payment method for one order. The amount is
// always the server-side price; the caller never chooses it.
func (s *StripeService) ProcessPayment(ctx context.Context, req *models.StripePaymentRequest) (*models.StripePaymentResponse, error) {
	s.log.Info("STRIPE", fmt.Sprintf("Processing payment for order %s, amount: %.2f %s", req.OrderID, req.Amount, req.Currency))

	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount: %.2f", req.Amount)
	}
	if req.Token == "" {
		return nil, fmt.Errorf("%w: no payment method provided", ErrStripeAPIError)
	}

	// Stripe uses the smallest currency unit.
	amountInCents := int64(req.Amount * 100)
	metadata := map[string]string{
		"payment_id": req.PaymentID,
		"order_id":   req.OrderID,
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountInCents),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(req.Token),
		Description:        stripe.String(fmt.Sprintf("songforge order %s", req.OrderID)),
		Metadata:           metadata,
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}

	pi, err := s.client.PaymentIntents.New(piParams)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	var status string
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = "completed"
		s.log.Info("STRIPE", fmt.Sprintf("Payment succeeded for order %s", req.OrderID))
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresAction:
		status = "pending"
		s.log.Info("STRIPE", fmt.Sprintf("Payment pending for order %s (intent status %s)", req.OrderID, pi.Status))
	default:
		status = "failed"
		s.log.Error("STRIPE", fmt.Sprintf("Payment failed for order %s with status %s", req.OrderID, pi.Status))
	}

	return &models.StripePaymentResponse{
		PaymentID:       req.PaymentID,
		OrderID:         req.OrderID,
		Status:          status,
		PaymentIntentID: pi.ID,
	}, nil
}
