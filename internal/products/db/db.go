package db

import (
	"context"

	"github.com/uptrace/bun"

	"songforge/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateProduct(ctx context.Context, product models.Product) error {
	_, err := d.Bun.NewInsert().Model(&product).Exec(ctx)
	return err
}

func (d *DB) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns catalog entries, optionally only active ones.
func (d *DB) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	products := []models.Product{}
	q := d.Bun.NewSelect().
		Model(&products).
		Order("created_at DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DB) UpdateProduct(ctx context.Context, product models.Product) error {
	_, err := d.Bun.NewUpdate().
		Model(&product).
		Column("name", "category", "price", "description", "active").
		Where("id = ?", product.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteProduct(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Product)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
