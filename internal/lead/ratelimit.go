package lead

import (
	"context"
	"sync"
	"time"
)

// RateLimiter records a submission attempt for a client key and reports
// whether the key is still within its window budget. Recording happens even
// on the attempt that trips the limit, so a client hammering the endpoint
// keeps pushing its own window forward (leaky counter, not a token bucket).
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a per-key sliding-window counter held in process memory.
// It only limits correctly within one long-lived instance; deployments that
// run several replicas should use the Redis-backed limiter instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing max attempts per key within a
// trailing window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow prunes attempts older than the window, records the current one and
// compares the resulting count against the limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.buckets[key][:0]
	for _, ts := range l.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	l.buckets[key] = kept

	return len(kept) <= l.max, nil
}

var _ RateLimiter = (*MemoryLimiter)(nil)
