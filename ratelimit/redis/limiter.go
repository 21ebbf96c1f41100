package redislimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is a Redis-backed sliding window limiter using ZSETs, keyed by
// sender id. It throttles command floods from non-admin users.
type Limiter struct {
	rdb    *redis.Client
	limits map[string]Limit
}

func New(rdb *redis.Client, limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{rdb: rdb, limits: limits}
}

func (l *Limiter) get(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 20, Window: time.Minute}
}

// Allow records one event for (sender, bucket) and reports whether the sender
// is within the bucket's window. A nil or unconfigured limiter always allows.
func (l *Limiter) Allow(bucket, sender string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || sender == "" {
		return false, fmt.Errorf("bucket and sender required")
	}
	ctx := context.Background()
	lim := l.get(bucket)
	now := time.Now().UnixMilli()
	start := now - lim.Window.Milliseconds()
	key := fmt.Sprintf("flood:%s:%s", sender, bucket)

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", start))
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		// Denied attempts do not count against the window.
		l.rdb.ZRem(ctx, key, now)
		return false, nil
	}
	return true, nil
}
