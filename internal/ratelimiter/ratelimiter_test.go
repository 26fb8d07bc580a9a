package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// TestNew verifies limiter creation with different parameters.
func TestNew(t *testing.T) {
	tests := []struct {
		name             string
		objectsPerSecond uint
		burst            uint
		wantNil          bool
		wantBurst        int
	}{
		{name: "standard rate", objectsPerSecond: 100, burst: 200, wantBurst: 200},
		{name: "default burst", objectsPerSecond: 50, burst: 0, wantBurst: 50},
		{name: "unlimited (zero rate)", objectsPerSecond: 0, burst: 10, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.objectsPerSecond, tt.burst)
			if tt.wantNil {
				if limiter != nil {
					t.Fatal("New() with zero rate should return nil")
				}
				return
			}
			if limiter == nil {
				t.Fatal("New() returned nil")
			}
			if limiter.Burst() != tt.wantBurst {
				t.Errorf("burst = %d, want %d", limiter.Burst(), tt.wantBurst)
			}
			if limiter.Limit() != float64(tt.objectsPerSecond) {
				t.Errorf("limit = %v, want %d", limiter.Limit(), tt.objectsPerSecond)
			}
		})
	}
}

// TestAllow verifies that Allow() enforces the burst.
func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("object %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("object should be rate-limited after burst exhausted")
	}

	// 100ms at 10 objects/s is one token
	time.Sleep(110 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("object should be allowed after token replenishment")
	}
}

// TestWait verifies that Wait() blocks until a token is available.
func TestWait(t *testing.T) {
	limiter := New(10, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first object should start immediately: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second object should start after waiting: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Fatalf("wait time %v outside expected range 50ms-200ms", elapsed)
	}
}

// TestWaitContextCancellation verifies that Wait() respects cancellation.
func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)

	if !limiter.Allow() {
		t.Fatal("first object should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait() should return error when context is cancelled")
	}
}

// TestNilLimiter verifies that an unlimited limiter never blocks.
func TestNilLimiter(t *testing.T) {
	var limiter *RateLimiter

	for i := 0; i < 1000; i++ {
		if !limiter.Allow() {
			t.Fatal("nil limiter should always allow")
		}
	}
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("nil limiter Wait() failed: %v", err)
	}
	if limiter.Limit() != 0 || limiter.Burst() != 0 {
		t.Error("nil limiter should report no limit")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Wait(ctx); err != context.Canceled {
		t.Fatalf("nil limiter Wait() on cancelled context = %v, want context.Canceled", err)
	}
}

// TestConcurrentWait verifies the bucket is shared between goroutines.
func TestConcurrentWait(t *testing.T) {
	limiter := New(1000, 5)
	ctx := context.Background()

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() { done <- limiter.Wait(ctx) }()
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Wait() failed: %v", err)
		}
	}
}
