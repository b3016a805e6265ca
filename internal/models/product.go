package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is an admin-managed catalog entry: a track package users can
// order (category, base price, blurb).
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Category    string    `bun:"category" json:"category"`
	Price       float64   `bun:"price" json:"price"`
	Description string    `bun:"description" json:"description"`
	Active      bool      `bun:"active" json:"active"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}
