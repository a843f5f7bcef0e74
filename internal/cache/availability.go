// Package cache holds the Redis read-through cache for the
// availability grid.  Keys are "{prefix}:{club_id}:{date}", so any
// write that changes a day's grid (generation, booking, cancellation)
// can delete exactly the entries it invalidated instead of waiting
// out a TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openclub/court-reservation/internal/config"
)

// Availability caches serialized availability payloads in Redis.
// With a nil client or Enabled=false every method is a no-op, so
// callers never branch on cache presence.
type Availability struct {
	rdb     *redis.Client
	ttl     time.Duration
	prefix  string
	enabled bool
}

// NewAvailability builds the availability cache from its config.
func NewAvailability(cfg config.AvailabilityCacheConfig, rdb *redis.Client) *Availability {
	return &Availability{
		rdb:     rdb,
		ttl:     cfg.TTL,
		prefix:  cfg.Prefix,
		enabled: cfg.Enabled && rdb != nil,
	}
}

func (a *Availability) key(clubID uint64, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s", a.prefix, clubID, day.UTC().Format("2006-01-02"))
}

// Get returns the cached payload for a club and date, or ("", false)
// on a miss.  Redis errors count as misses; the caller falls through
// to the database.
func (a *Availability) Get(ctx context.Context, clubID uint64, day time.Time) (string, bool) {
	if !a.enabled {
		return "", false
	}
	v, err := a.rdb.Get(ctx, a.key(clubID, day)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Set stores the payload for a club and date under the configured TTL.
func (a *Availability) Set(ctx context.Context, clubID uint64, day time.Time, payload string) {
	if !a.enabled {
		return
	}
	_ = a.rdb.Set(ctx, a.key(clubID, day), payload, a.ttl).Err()
}

// Invalidate drops the cached entries for the given club and days.
// Failures are ignored: a stale entry ages out via TTL.
func (a *Availability) Invalidate(ctx context.Context, clubID uint64, days ...time.Time) {
	if !a.enabled || len(days) == 0 {
		return
	}
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = a.key(clubID, d)
	}
	_ = a.rdb.Del(ctx, keys...).Err()
}

// InvalidateRange drops entries for every day in [from, to] inclusive.
// Used after slot generation, which touches a contiguous range.
func (a *Availability) InvalidateRange(ctx context.Context, clubID uint64, from, to time.Time) {
	if !a.enabled {
		return
	}
	var days []time.Time
	for d := dateOf(from); !d.After(dateOf(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	a.Invalidate(ctx, clubID, days...)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
