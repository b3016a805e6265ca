package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"songforge/internal/models"
	"songforge/internal/orders/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Order)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func sampleOrder(id, ownerID string, createdAt time.Time) models.Order {
	return models.Order{
		ID:              id,
		OwnerID:         ownerID,
		LifecycleStatus: "pending",
		PaymentStatus:   "pending",
		Honoree:         "Maya",
		Category:        "birthday",
		Story:           "A song about our first road trip.",
		Price:           49.0,
		CreatedAt:       createdAt,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("o1", "user-1", time.Now().Round(time.Second))
	require.NoError(t, d.CreateOrder(ctx, order))

	got, err := d.GetOrderByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.OwnerID, got.OwnerID)
	assert.Equal(t, order.LifecycleStatus, got.LifecycleStatus)
	assert.Equal(t, order.Story, got.Story)
}

func TestOrdersByOwnerNewestFirst(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Round(time.Second)

	require.NoError(t, d.CreateOrder(ctx, sampleOrder("older", "user-1", now.Add(-2*time.Hour))))
	require.NoError(t, d.CreateOrder(ctx, sampleOrder("newest", "user-1", now)))
	require.NoError(t, d.CreateOrder(ctx, sampleOrder("middle", "user-1", now.Add(-time.Hour))))
	require.NoError(t, d.CreateOrder(ctx, sampleOrder("foreign", "user-2", now)))

	got, err := d.OrdersByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].ID)
	assert.Equal(t, "middle", got[1].ID)
	assert.Equal(t, "older", got[2].ID)
}

func TestOrdersByOwnerEmpty(t *testing.T) {
	d := setupTestDB(t)

	got, err := d.OrdersByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got, "callers rely on an empty slice, not nil")
}

func TestUpdateOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("o1", "user-1", time.Now().Round(time.Second))
	require.NoError(t, d.CreateOrder(ctx, order))

	order.LifecycleStatus = "in_production"
	order.PreviewURL = "https://cdn/preview.mp3"
	require.NoError(t, d.UpdateOrder(ctx, order))

	got, err := d.GetOrderByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "in_production", got.LifecycleStatus)
	assert.Equal(t, "https://cdn/preview.mp3", got.PreviewURL)
}

func TestCountByOwner(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, d.CreateOrder(ctx, sampleOrder("o1", "user-1", now)))
	require.NoError(t, d.CreateOrder(ctx, sampleOrder("o2", "user-1", now)))

	count, err := d.CountByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = d.CountByOwner(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
