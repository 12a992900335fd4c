package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// InMemoryRateLimiter is a per-key token bucket. Each key may burst up to the
// full request budget and refills evenly across the window.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests:  requests,
		window:    window,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		every := r.window / time.Duration(max(r.requests, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), r.requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	r.sweep(now)

	return !b.limiter.AllowN(now, 1), nil
}

// sweep drops buckets idle for two windows; by then they have fully refilled.
func (r *InMemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.window {
		return
	}
	r.lastSweep = now

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
