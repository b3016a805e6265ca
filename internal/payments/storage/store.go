package storage

import (
	"songforge/internal/models"
)

type Store interface {
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	GetPaymentByOrderID(orderID string) (*models.Payment, error)

	Close() error
	HealthCheck() error
}
