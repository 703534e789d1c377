package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter gates an action: Allow takes a slot if one is free, Wait blocks
// for one until ctx is done
type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
	Reset()
}

// pollFloor keeps Wait from spinning when a slot is due but not yet free
const pollFloor = 100 * time.Millisecond

// TokenBucket hands out capacity tokens and refills all of them once
// refillPeriod has passed since the last refill. The Sheets exporter uses
// one per minute of write quota.
type TokenBucket struct {
	mu           sync.Mutex
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
}

func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if now := time.Now(); now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
	if tb.tokens == 0 {
		return false
	}
	tb.tokens--
	return true
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return waitFor(ctx, tb.Allow, func() time.Duration {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		return tb.refillPeriod - time.Since(tb.lastRefill)
	})
}

// Reset refills the bucket now
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// SlidingWindow allows at most maxRequests within any windowSize span. The
// browser uses one to cap page loads per hour.
type SlidingWindow struct {
	mu          sync.Mutex
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time // oldest first
}

func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evict(now)
	if len(sw.requests) >= sw.maxRequests {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	return waitFor(ctx, sw.Allow, sw.NextSlot)
}

// NextSlot is how long until the oldest request leaves the window, or zero
// if a request would be allowed now
func (sw *SlidingWindow) NextSlot() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evict(now)
	if len(sw.requests) == 0 || len(sw.requests) < sw.maxRequests {
		return 0
	}
	return sw.windowSize - now.Sub(sw.requests[0])
}

// Count is the number of requests inside the current window
func (sw *SlidingWindow) Count() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evict(time.Now())
	return len(sw.requests)
}

func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.requests = sw.requests[:0]
}

// evict drops requests older than the window
func (sw *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	keep := 0
	for keep < len(sw.requests) && sw.requests[keep].Before(cutoff) {
		keep++
	}
	if keep > 0 {
		sw.requests = append(sw.requests[:0], sw.requests[keep:]...)
	}
}

// waitFor retries allow, sleeping for next (pollFloor when it is not
// positive) between attempts, until it succeeds or ctx is done
func waitFor(ctx context.Context, allow func() bool, next func() time.Duration) error {
	for !allow() {
		d := next()
		if d <= 0 {
			d = pollFloor
		}
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return nil
}
