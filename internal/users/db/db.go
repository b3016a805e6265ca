package db

import (
	"context"

	"github.com/uptrace/bun"

	"songforge/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewInsert().Model(&user).Exec(ctx)
	return err
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) UpdateUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(&user).
		Column("full_name", "phone", "is_admin").
		Where("id = ?", user.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteUser(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// CountAdmins counts users carrying the admin flag.
func (d *DB) CountAdmins(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("is_admin = ?", true).
		Count(ctx)
}
