package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	emptyKey      = "__empty__"
	sweepInterval = 1024
)

// InMemoryRateLimiter keeps one token bucket per key. Only suitable for a
// single instance.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(key string) (bool, error) {
	if key == "" {
		key = emptyKey
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		every := r.window / time.Duration(r.requests)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), r.requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	r.calls++
	if r.calls%sweepInterval == 0 {
		r.sweep(now)
	}

	return !b.limiter.AllowN(now, 1), nil
}

// sweep drops buckets idle for two windows. Callers hold r.mu.
func (r *InMemoryRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

func (r *InMemoryRateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}
