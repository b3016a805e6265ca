package models

import "strings"

// Enum values arrive from external writers (admin tools, partially migrated
// rows), so every field is coerced to a documented value instead of being
// rejected. Coercion is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).

type LifecycleStatus string

const (
	LifecyclePending      LifecycleStatus = "pending"
	LifecycleInProduction LifecycleStatus = "in_production"
	LifecycleCompleted    LifecycleStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type Category string

const (
	CategoryRomantic   Category = "romantic"
	CategoryBirthday   Category = "birthday"
	CategoryWedding    Category = "wedding"
	CategoryFriendship Category = "friendship"
	CategoryOther      Category = "other"
)

// SanitizeLifecycleStatus maps any raw value to a recognized lifecycle
// status. Unknown or missing input defaults to pending.
func SanitizeLifecycleStatus(raw string) LifecycleStatus {
	switch LifecycleStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case LifecyclePending, LifecycleInProduction, LifecycleCompleted:
		return LifecycleStatus(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return LifecyclePending
	}
}

// SanitizePaymentStatus maps any raw value to a recognized payment status.
// Unknown or missing input defaults to pending.
func SanitizePaymentStatus(raw string) PaymentStatus {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentPending, PaymentCompleted:
		return PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return PaymentPending
	}
}

// SanitizeCategory maps any raw value to a recognized category. Unknown or
// missing input defaults to other.
func SanitizeCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryRomantic, CategoryBirthday, CategoryWedding, CategoryFriendship, CategoryOther:
		return Category(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return CategoryOther
	}
}

// KnownLifecycleStatus reports whether raw is one of the recognized
// lifecycle values. The classifier uses this to flag anomalies without
// losing the raw value.
func KnownLifecycleStatus(raw string) bool {
	switch LifecycleStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case LifecyclePending, LifecycleInProduction, LifecycleCompleted:
		return true
	default:
		return false
	}
}

// SanitizeOrder normalizes every enum-valued field on an order in place
// and returns the same order for chaining.
func SanitizeOrder(o *Order) *Order {
	if o == nil {
		return nil
	}
	o.LifecycleStatus = string(SanitizeLifecycleStatus(o.LifecycleStatus))
	o.PaymentStatus = string(SanitizePaymentStatus(o.PaymentStatus))
	o.Category = string(SanitizeCategory(o.Category))
	return o
}
