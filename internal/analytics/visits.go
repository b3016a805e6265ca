package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// VisitCounter tracks site visits in Redis: one all-time counter and one
// counter per day. Per-day keys expire after 90 days.
type VisitCounter struct {
	client *redis.Client
}

const (
	visitTotalKey     = "songforge:visits:total"
	visitDayKeyFmt    = "songforge:visits:day:%s"
	visitDayKeyTTL    = 90 * 24 * time.Hour
	visitDayKeyLayout = "2006-01-02"
)

func NewVisitCounter(client *redis.Client) *VisitCounter {
	return &VisitCounter{client: client}
}

// RecordVisit bumps both counters.
func (v *VisitCounter) RecordVisit(ctx context.Context) error {
	if err := v.client.Incr(ctx, visitTotalKey).Err(); err != nil {
		return err
	}

	dayKey := fmt.Sprintf(visitDayKeyFmt, time.Now().UTC().Format(visitDayKeyLayout))
	if err := v.client.Incr(ctx, dayKey).Err(); err != nil {
		return err
	}
	return v.client.Expire(ctx, dayKey, visitDayKeyTTL).Err()
}

// TotalVisits returns the all-time visit count.
func (v *VisitCounter) TotalVisits(ctx context.Context) (int64, error) {
	n, err := v.client.Get(ctx, visitTotalKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// VisitsOn returns the visit count for one day.
func (v *VisitCounter) VisitsOn(ctx context.Context, day time.Time) (int64, error) {
	dayKey := fmt.Sprintf(visitDayKeyFmt, day.UTC().Format(visitDayKeyLayout))
	n, err := v.client.Get(ctx, dayKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
