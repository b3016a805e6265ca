package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a single customer request for a personalized track. Production
// lifecycle and payment are independent axes: a completed production can
// still be unpaid. Status fields are kept as raw strings so the
// synchronizer can observe unrecognized values before sanitization.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string    `bun:"id,pk" json:"id"`
	OwnerID         string    `bun:"owner_id,notnull" json:"owner_id"`
	LifecycleStatus string    `bun:"lifecycle_status,notnull" json:"lifecycle_status"`
	PaymentStatus   string    `bun:"payment_status" json:"payment_status,omitempty"`
	PreviewURL      string    `bun:"preview_url,nullzero" json:"preview_url,omitempty"`
	FullURL         string    `bun:"full_url,nullzero" json:"full_url,omitempty"`
	Honoree         string    `bun:"honoree" json:"honoree"`
	Category        string    `bun:"category" json:"category"`
	Story           string    `bun:"story" json:"story"`
	Price           float64   `bun:"price" json:"price"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"created_at"`
}

// HasPreview reports whether a preview artifact is ready. Presence of the
// URL is the signal, the contents are opaque to this layer.
func (o *Order) HasPreview() bool {
	return o.PreviewURL != ""
}

// Paid reports whether the payment axis reached its terminal state.
func (o *Order) Paid() bool {
	return SanitizePaymentStatus(o.PaymentStatus) == PaymentCompleted
}

type OrderRequest struct {
	Honoree  string  `json:"honoree"`
	Category string  `json:"category"`
	Story    string  `json:"story"`
	Price    float64 `json:"price"`
}

// OrderPatch carries operator/admin mutations. Nil fields are untouched.
type OrderPatch struct {
	LifecycleStatus *string `json:"lifecycle_status,omitempty"`
	PaymentStatus   *string `json:"payment_status,omitempty"`
	PreviewURL      *string `json:"preview_url,omitempty"`
	FullURL         *string `json:"full_url,omitempty"`
}
