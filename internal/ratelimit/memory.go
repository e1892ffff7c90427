package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Process-local sliding window: a map from user id to in-window request
// times, guarded by one mutex. Only suitable for single-instance
// deployments - state is neither shared between instances nor persisted.
// Per-user entries are never evicted once created, so memory grows with
// the number of distinct users seen; acceptable for this workload.
type MemoryLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		limit:    Requests,
		window:   Window(),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) CheckAndRecord(_ context.Context, userID string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	// Drop timestamps that fell out of the window
	kept := l.requests[userID][:0]
	for _, ts := range l.requests[userID] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	l.requests[userID] = kept

	count := len(kept)

	if count >= l.limit {
		// Timestamps are appended in order, so the oldest survivor is first
		resetIn := int(math.Ceil(kept[0].Add(l.window).Sub(now).Seconds())) + 1
		if resetIn < 1 {
			resetIn = 1
		}
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}

	l.requests[userID] = append(kept, now)

	return Result{
		Allowed:   true,
		Remaining: l.limit - count - 1,
		ResetIn:   WindowSeconds,
	}, nil
}
