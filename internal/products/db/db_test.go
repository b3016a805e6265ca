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
	"songforge/internal/products/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Product)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func TestListProductsActiveFilter(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, d.CreateProduct(ctx, models.Product{ID: "p1", Name: "Birthday Anthem", Category: "birthday", Price: 49, Active: true, CreatedAt: now}))
	require.NoError(t, d.CreateProduct(ctx, models.Product{ID: "p2", Name: "Retired Package", Category: "other", Price: 19, Active: false, CreatedAt: now}))

	active, err := d.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p1", active[0].ID)

	all, err := d.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	product := models.Product{ID: "p1", Name: "Birthday Anthem", Category: "birthday", Price: 49, Active: true, CreatedAt: time.Now()}
	require.NoError(t, d.CreateProduct(ctx, product))

	product.Price = 59
	product.Active = false
	require.NoError(t, d.UpdateProduct(ctx, product))

	got, err := d.GetProductByID(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 59.0, got.Price, 0.001)
	assert.False(t, got.Active)

	require.NoError(t, d.DeleteProduct(ctx, "p1"))
	_, err = d.GetProductByID(ctx, "p1")
	assert.Error(t, err)
}
