package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is an in-memory sliding-window rate limiter keyed by sender id.
// It is the single-node fallback when Redis is not configured.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]Limit
	events map[string][]int64
}

// New constructs an in-memory limiter with the provided per-bucket limits.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits: limits,
		events: make(map[string][]int64),
	}
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
// is within the bucket's window. Expired events are pruned on each call and
// empty buckets dropped so memory stays bounded.
func (l *Limiter) Allow(bucket, sender string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || sender == "" {
		return false, fmt.Errorf("bucket and sender required")
	}

	lim := l.get(bucket)
	nowMs := time.Now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()
	key := fmt.Sprintf("%s:%s", sender, bucket)

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.events[key]
	pruned := 0
	for pruned < len(ts) && ts[pruned] < windowStart {
		pruned++
	}
	ts = ts[pruned:]

	if len(ts) >= lim.Limit {
		// Denied attempts do not count against the window.
		if len(ts) == 0 {
			delete(l.events, key)
		} else {
			l.events[key] = ts
		}
		return false, nil
	}

	l.events[key] = append(ts, nowMs)
	return true, nil
}
