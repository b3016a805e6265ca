package analytics

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations.
type DB struct {
	bun *bun.DB
}

func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// DailyOrderData represents raw per-day order metrics from the database.
type DailyOrderData struct {
	OrderDate  time.Time `bun:"order_date"`
	OrderCount int       `bun:"order_count"`
	Revenue    float64   `bun:"revenue"`
}

// GetDailyOrders retrieves per-day order counts and paid revenue since a
// cutoff. Revenue only counts orders whose payment completed.
func (db *DB) GetDailyOrders(ctx context.Context, since time.Time) ([]DailyOrderData, error) {
	var daily []DailyOrderData
	err := db.bun.NewRaw(`
		SELECT
			DATE(created_at) AS order_date,
			COUNT(*) AS order_count,
			SUM(CASE WHEN payment_status = 'completed' THEN price ELSE 0.0 END) AS revenue
		FROM
			orders
		WHERE
			created_at >= ?
		GROUP BY
			DATE(created_at)
		ORDER BY
			DATE(created_at)
	`, since).Scan(ctx, &daily)

	return daily, err
}

// StatusCountData represents order counts grouped by lifecycle status.
type StatusCountData struct {
	LifecycleStatus string `bun:"lifecycle_status"`
	OrderCount      int    `bun:"order_count"`
}

// GetOrderCountsByStatus retrieves order totals per lifecycle status.
func (db *DB) GetOrderCountsByStatus(ctx context.Context) ([]StatusCountData, error) {
	var counts []StatusCountData
	err := db.bun.NewSelect().
		ColumnExpr("orders.lifecycle_status").
		ColumnExpr("COUNT(*) AS order_count").
		TableExpr("orders").
		GroupExpr("orders.lifecycle_status").
		OrderExpr("orders.lifecycle_status").
		Scan(ctx, &counts)

	return counts, err
}

// GetTotals retrieves the all-time order count and paid revenue.
func (db *DB) GetTotals(ctx context.Context) (int, float64, error) {
	var totals struct {
		OrderCount int     `bun:"order_count"`
		Revenue    float64 `bun:"revenue"`
	}
	err := db.bun.NewRaw(`
		SELECT
			COUNT(*) AS order_count,
			COALESCE(SUM(CASE WHEN payment_status = 'completed' THEN price ELSE 0 END), 0) AS revenue
		FROM
			orders
	`).Scan(ctx, &totals)

	return totals.OrderCount, totals.Revenue, err
}

// GetUserCount retrieves the number of registered users.
func (db *DB) GetUserCount(ctx context.Context) (int, error) {
	var count int
	err := db.bun.NewRaw("SELECT COUNT(*) FROM users").Scan(ctx, &count)
	return count, err
}
