package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"songforge/internal/logger"
	"songforge/internal/models"
)

var (
	ErrEmptyStory   = errors.New("order story must not be empty")
	ErrEmptyHonoree = errors.New("order honoree must not be empty")
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order models.Order) error
	OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderUpdated(order models.Order) error
}

// Deliverer runs after payment completes: delivery email, QR code,
// whatever unlocking entails. Failures are logged, never fatal to the
// payment itself.
type Deliverer interface {
	Deliver(ctx context.Context, order models.Order) error
}

type OrderService struct {
	DB        DBLayer
	Publisher EventPublisher
	Deliverer Deliverer
	logger    *logger.Logger
}

func NewOrderService(db DBLayer, publisher EventPublisher, deliverer Deliverer, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Publisher: publisher, Deliverer: deliverer, logger: log}
}

// PlaceOrder creates a new track request for an owner. The server assigns
// the ID and creation time; enum fields are sanitized before the row is
// written.
func (s *OrderService) PlaceOrder(ctx context.Context, ownerID string, req models.OrderRequest) (*models.Order, error) {
	if req.Honoree == "" {
		return nil, ErrEmptyHonoree
	}
	if req.Story == "" {
		return nil, ErrEmptyStory
	}

	order := models.Order{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		LifecycleStatus: string(models.LifecyclePending),
		PaymentStatus:   string(models.PaymentPending),
		Honoree:         req.Honoree,
		Category:        string(models.SanitizeCategory(req.Category)),
		Story:           req.Story,
		Price:           req.Price,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.LogOrder("CREATE", order.ID, fmt.Sprintf("new request for owner %s", ownerID))

	if err := s.Publisher.PublishOrderCreated(order); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("publish error (order created): %v", err))
	}

	return &order, nil
}

// GetOrder fetches a single order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.DB.GetOrderByID(ctx, id)
}

// OrdersByOwner returns the owner's full order set, newest first. This is
// the backend the synchronizer fetches from.
func (s *OrderService) OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	return s.DB.OrdersByOwner(ctx, ownerID)
}

// ListOrders returns every order for the admin panel.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.DB.ListOrders(ctx)
}

// CountByOwner exposes the per-owner order count for the user-deletion
// guard.
func (s *OrderService) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return s.DB.CountByOwner(ctx, ownerID)
}

// ApplyPatch applies an operator/admin mutation: lifecycle moves, asset
// URLs, payment flips. Enum fields are sanitized; a payment flip to
// completed triggers delivery. Orders are never deleted here.
func (s *OrderService) ApplyPatch(ctx context.Context, id string, patch models.OrderPatch) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", id, err)
	}

	wasPaid := order.Paid()

	if patch.LifecycleStatus != nil {
		order.LifecycleStatus = string(models.SanitizeLifecycleStatus(*patch.LifecycleStatus))
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = string(models.SanitizePaymentStatus(*patch.PaymentStatus))
	}
	if patch.PreviewURL != nil {
		order.PreviewURL = *patch.PreviewURL
	}
	if patch.FullURL != nil {
		order.FullURL = *patch.FullURL
	}

	if err := s.DB.UpdateOrder(ctx, *order); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	s.logger.LogOrder("UPDATE", order.ID, fmt.Sprintf("lifecycle=%s payment=%s", order.LifecycleStatus, order.PaymentStatus))

	if err := s.Publisher.PublishOrderUpdated(*order); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("publish error (order updated): %v", err))
	}

	if !wasPaid && order.Paid() {
		s.deliver(ctx, *order)
	}

	return order, nil
}

// MarkPaid flips the payment axis to completed. Called by the payment
// service on a successful charge.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (*models.Order, error) {
	paid := string(models.PaymentCompleted)
	return s.ApplyPatch(ctx, id, models.OrderPatch{PaymentStatus: &paid})
}

func (s *OrderService) deliver(ctx context.Context, order models.Order) {
	if s.Deliverer == nil {
		return
	}
	if err := s.Deliverer.Deliver(ctx, order); err != nil {
		s.logger.Error("DELIVERY", fmt.Sprintf("delivery for order %s failed: %v", order.ID, err))
		return
	}
	s.logger.LogOrder("DELIVER", order.ID, "delivery completed")
}
