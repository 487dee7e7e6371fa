// Package redis keeps per-hour counters of job transitions and offers in
// Redis for dashboards. Keys look like
//
//	fulfillment:status:<kind>:<status>:<yyyymmddhh>
//	fulfillment:offers:<kind>:<yyyymmddhh>
//
// and expire after the configured retention.
package redis

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "fulfillment"
	DefaultRetention = 7 * 24 * time.Hour
)

var _ ports.Notifier = (*AnalyticsNotifier)(nil)

type AnalyticsNotifier struct {
	client    goredis.Cmdable
	retention time.Duration
}

func NewAnalyticsNotifier(client goredis.Cmdable, retention time.Duration) *AnalyticsNotifier {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &AnalyticsNotifier{client: client, retention: retention}
}

func (n *AnalyticsNotifier) JobStatusChanged(ctx context.Context, changed job.StatusChanged) error {
	return n.incr(ctx, StatusKey(changed.Kind, changed.To, changed.At))
}

// JobOffered counts the offer and the number of drivers it reached.
func (n *AnalyticsNotifier) JobOffered(ctx context.Context, offer ports.Offer) error {
	key := OfferKey(offer.Kind, offer.At)
	pipe := n.client.Pipeline()
	pipe.HIncrBy(ctx, key, "offers", 1)
	pipe.HIncrBy(ctx, key, "drivers", int64(len(offer.DriverIDs)))
	pipe.Expire(ctx, key, n.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

func (n *AnalyticsNotifier) incr(ctx context.Context, key string) error {
	pipe := n.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, n.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

func StatusKey(kind job.Kind, status job.Status, at time.Time) string {
	return fmt.Sprintf("%s:status:%s:%s:%s", keyPrefix, kind, status, hourBucket(at))
}

func OfferKey(kind job.Kind, at time.Time) string {
	return fmt.Sprintf("%s:offers:%s:%s", keyPrefix, kind, hourBucket(at))
}

func hourBucket(t time.Time) string {
	return t.UTC().Format("2006010215")
}
