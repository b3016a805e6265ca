package db

import (
	"context"

	"github.com/uptrace/bun"

	"songforge/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateOrder inserts a new order row.
func (d *DB) CreateOrder(ctx context.Context, order models.Order) error {
	_, err := d.Bun.NewInsert().Model(&order).Exec(ctx)
	return err
}

// GetOrderByID fetches one order by its ID.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder updates the operator-mutable fields.
func (d *DB) UpdateOrder(ctx context.Context, order models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(&order).
		Column("lifecycle_status", "payment_status", "preview_url", "full_url", "price").
		Where("id = ?", order.ID).
		Exec(ctx)
	return err
}

// OrdersByOwner fetches all orders for one owner, newest first.
func (d *DB) OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders fetches every order, newest first. Admin panel only.
func (d *DB) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByOwner returns how many orders an owner has. The user-deletion
// guard depends on it.
func (d *DB) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("owner_id = ?", ownerID).
		Count(ctx)
}
