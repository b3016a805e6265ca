package delivery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"songforge/internal/delivery"
	"songforge/internal/logger"
	"songforge/internal/mailer"
	"songforge/internal/models"
	"songforge/internal/storage"
)

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestDeliverSendsMailWithQR(t *testing.T) {
	users := new(MockUserGetter)
	local := storage.NewLocal()
	sim := mailer.NewSimulator(nil)
	svc := delivery.NewService(users, local, sim, logger.NewLogger())

	users.On("GetUser", mock.Anything, "user-1").
		Return(&models.User{ID: "user-1", Email: "maya@example.com", FullName: "Maya"}, nil)

	order := models.Order{
		ID:      "o1",
		OwnerID: "user-1",
		Honoree: "Maya",
		FullURL: "https://cdn/full.mp3",
	}

	require.NoError(t, svc.Deliver(context.Background(), order))

	qr, ok := local.Get("qr/o1.png")
	require.True(t, ok, "QR code must be uploaded")
	assert.NotEmpty(t, qr)

	messages := sim.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "maya@example.com", messages[0].To)
	assert.Contains(t, messages[0].Body, "https://cdn/full.mp3")
	assert.Contains(t, messages[0].Body, "local://qr/o1.png")
}

func TestDeliverRequiresFullTrack(t *testing.T) {
	svc := delivery.NewService(new(MockUserGetter), storage.NewLocal(), mailer.NewSimulator(nil), logger.NewLogger())

	err := svc.Deliver(context.Background(), models.Order{ID: "o1", OwnerID: "user-1"})
	assert.ErrorIs(t, err, delivery.ErrNoFullTrack)
}

func TestDeliverFailsWhenOwnerMissing(t *testing.T) {
	users := new(MockUserGetter)
	svc := delivery.NewService(users, storage.NewLocal(), mailer.NewSimulator(nil), logger.NewLogger())

	users.On("GetUser", mock.Anything, "ghost").Return(nil, assert.AnError)

	err := svc.Deliver(context.Background(), models.Order{ID: "o1", OwnerID: "ghost", FullURL: "https://cdn/full.mp3"})
	assert.Error(t, err)
}
