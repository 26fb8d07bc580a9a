// Package ratelimiter throttles how many objects a run starts per second.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every worker of a run: each object
// takes one token before it is loaded from the source.
//
// A nil *RateLimiter never blocks, so callers can hold one unconditionally.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter admitting objectsPerSecond objects per second on
// average and up to burst at once.
//
// Parameters:
//   - objectsPerSecond: Sustained rate; 0 disables limiting and returns nil
//   - burst: Bucket capacity; 0 means one second worth of objects
//
// Example:
//
//	// At most 200 objects/s, never more than 50 back to back
//	limiter := New(200, 50)
func New(objectsPerSecond, burst uint) *RateLimiter {
	if objectsPerSecond == 0 {
		return nil
	}
	if burst == 0 {
		burst = objectsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(objectsPerSecond), int(burst)),
	}
}

// Wait blocks until an object may start or ctx is cancelled.
//
// Returns:
//   - nil if a token was acquired
//   - the context error if ctx ended first
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Allow reports whether an object may start now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}

// Limit returns the sustained rate in objects per second, 0 when unlimited.
func (r *RateLimiter) Limit() float64 {
	if r == nil {
		return 0
	}
	return float64(r.limiter.Limit())
}

// Burst returns the bucket capacity, 0 when unlimited.
func (r *RateLimiter) Burst() int {
	if r == nil {
		return 0
	}
	return r.limiter.Burst()
}
