package analytics

import (
	"context"
	"time"
)

// Service aggregates order, user and visit metrics for the admin
// dashboard.
type Service struct {
	db     *DB
	visits *VisitCounter
}

func NewService(db *DB, visits *VisitCounter) *Service {
	return &Service{db: db, visits: visits}
}

// DailyMetrics contains metrics for a single day.
type DailyMetrics struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// StatusBreakdown is the order count for one lifecycle status.
type StatusBreakdown struct {
	Status string `json:"status"`
	Orders int    `json:"orders"`
}

// Dashboard is the aggregated view the admin panel renders.
type Dashboard struct {
	TotalOrders  int               `json:"total_orders"`
	TotalRevenue float64           `json:"total_revenue"`
	TotalUsers   int               `json:"total_users"`
	TotalVisits  int64             `json:"total_visits"`
	VisitsToday  int64             `json:"visits_today"`
	DailyOrders  []DailyMetrics    `json:"daily_orders"`
	ByStatus     []StatusBreakdown `json:"by_status"`
}

// GetDashboard assembles the full dashboard. Daily metrics cover the last
// `days` days.
func (s *Service) GetDashboard(ctx context.Context, days int) (*Dashboard, error) {
	if days <= 0 {
		days = 30
	}

	totalOrders, totalRevenue, err := s.db.GetTotals(ctx)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.db.GetUserCount(ctx)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	rawDaily, err := s.db.GetDailyOrders(ctx, since)
	if err != nil {
		return nil, err
	}

	daily := make([]DailyMetrics, 0, len(rawDaily))
	for _, d := range rawDaily {
		daily = append(daily, DailyMetrics{
			Date:    d.OrderDate.Format("2006-01-02"),
			Orders:  d.OrderCount,
			Revenue: d.Revenue,
		})
	}

	rawStatus, err := s.db.GetOrderCountsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make([]StatusBreakdown, 0, len(rawStatus))
	for _, c := range rawStatus {
		byStatus = append(byStatus, StatusBreakdown{Status: c.LifecycleStatus, Orders: c.OrderCount})
	}

	dash := &Dashboard{
		TotalOrders:  totalOrders,
		TotalRevenue: totalRevenue,
		TotalUsers:   totalUsers,
		DailyOrders:  daily,
		ByStatus:     byStatus,
	}

	// Visit counters are best-effort; a Redis outage must not blank the
	// rest of the dashboard.
	if s.visits != nil {
		if total, err := s.visits.TotalVisits(ctx); err == nil {
			dash.TotalVisits = total
		}
		if today, err := s.visits.VisitsOn(ctx, time.Now().UTC()); err == nil {
			dash.VisitsToday = today
		}
	}

	return dash, nil
}
