package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"songforge/internal/logger"
	"songforge/internal/models"
	"songforge/internal/orders"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrder(ctx context.Context, order models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateOrder(ctx context.Context, order models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockDBLayer) OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) ListOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderUpdated(order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, order models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func newService(db *MockDBLayer, pub *MockPublisher, del *MockDeliverer) *orders.OrderService {
	return orders.NewOrderService(db, pub, del, logger.NewLogger())
}

func TestPlaceOrderSanitizesAndPublishes(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockPub := new(MockPublisher)
	svc := newService(mockDB, mockPub, nil)

	mockDB.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.ID != "" &&
			o.LifecycleStatus == "pending" &&
			o.Category == "other" // "polka" is not a recognized category
	})).Return(nil)
	mockPub.On("PublishOrderCreated", mock.Anything).Return(nil)

	order, err := svc.PlaceOrder(context.Background(), "user-1", models.OrderRequest{
		Honoree:  "Maya",
		Category: "polka",
		Story:    "A song about our first road trip.",
		Price:    49.0,
	})

	assert.NoError(t, err)
	assert.Equal(t, "user-1", order.OwnerID)
	mockDB.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestPlaceOrderRejectsEmptyFields(t *testing.T) {
	svc := newService(new(MockDBLayer), new(MockPublisher), nil)

	_, err := svc.PlaceOrder(context.Background(), "user-1", models.OrderRequest{Story: "a story"})
	assert.ErrorIs(t, err, orders.ErrEmptyHonoree)

	_, err = svc.PlaceOrder(context.Background(), "user-1", models.OrderRequest{Honoree: "Maya"})
	assert.ErrorIs(t, err, orders.ErrEmptyStory)
}

func TestApplyPatchSanitizesStatus(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockPub := new(MockPublisher)
	svc := newService(mockDB, mockPub, nil)

	existing := &models.Order{
		ID:              "o1",
		OwnerID:         "user-1",
		LifecycleStatus: "pending",
		PaymentStatus:   "pending",
		CreatedAt:       time.Now(),
	}
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(existing, nil)
	mockDB.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.LifecycleStatus == "pending" // unknown value coerced to the default
	})).Return(nil)
	mockPub.On("PublishOrderUpdated", mock.Anything).Return(nil)

	bogus := "shipped"
	updated, err := svc.ApplyPatch(context.Background(), "o1", models.OrderPatch{LifecycleStatus: &bogus})

	assert.NoError(t, err)
	assert.Equal(t, "pending", updated.LifecycleStatus)
	mockDB.AssertExpectations(t)
}

func TestMarkPaidTriggersDelivery(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockPub := new(MockPublisher)
	mockDel := new(MockDeliverer)
	svc := newService(mockDB, mockPub, mockDel)

	existing := &models.Order{
		ID:              "o1",
		OwnerID:         "user-1",
		LifecycleStatus: "completed",
		PaymentStatus:   "pending",
		FullURL:         "https://cdn/full.mp3",
		CreatedAt:       time.Now(),
	}
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(existing, nil)
	mockDB.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
	mockPub.On("PublishOrderUpdated", mock.Anything).Return(nil)
	mockDel.On("Deliver", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.ID == "o1" && o.PaymentStatus == "completed"
	})).Return(nil)

	updated, err := svc.MarkPaid(context.Background(), "o1")

	assert.NoError(t, err)
	assert.Equal(t, "completed", updated.PaymentStatus)
	mockDel.AssertExpectations(t)
}

func TestMarkPaidDeliveryFailureIsNotFatal(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockPub := new(MockPublisher)
	mockDel := new(MockDeliverer)
	svc := newService(mockDB, mockPub, mockDel)

	existing := &models.Order{ID: "o1", LifecycleStatus: "completed", PaymentStatus: "pending"}
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(existing, nil)
	mockDB.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
	mockPub.On("PublishOrderUpdated", mock.Anything).Return(nil)
	mockDel.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := svc.MarkPaid(context.Background(), "o1")
	assert.NoError(t, err, "delivery failures are logged, not returned")
}

func TestApplyPatchMissingOrder(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB, new(MockPublisher), nil)

	mockDB.On("GetOrderByID", mock.Anything, "missing").Return(nil, errors.New("sql: no rows"))

	paid := "completed"
	_, err := svc.ApplyPatch(context.Background(), "missing", models.OrderPatch{PaymentStatus: &paid})
	assert.Error(t, err)
}
