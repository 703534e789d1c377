// Package pacing produces the human-like delays between browser actions.
//
// Delays are the only impure, time-dependent part of a harvest. Keeping them
// behind Policy lets the harvest loop run deterministically in tests with
// the Zero policy.
package pacing

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	DefaultMinDelay          = 2 * time.Second
	DefaultMaxDelay          = 5 * time.Second
	DefaultScrollPause       = 1 * time.Second
	DefaultLongPauseInterval = 50
	DefaultLongPauseFactor   = 6.0
)

// Policy decides how long to wait between actions
type Policy interface {
	// NextDelay is a short delay sampled uniformly from [min, max]
	NextDelay() time.Duration
	// ShouldLongPause is true on every Nth action
	ShouldLongPause(actionCount int) bool
	// LongPause is a multiple of the base range
	LongPause() time.Duration
	// ScrollPause is the settle time after a scroll or page change
	ScrollPause() time.Duration
}

// For returns the delay to apply before the given action
func For(p Policy, actionCount int) time.Duration {
	if p.ShouldLongPause(actionCount) {
		return p.LongPause()
	}
	return p.NextDelay()
}

// Config holds the tunables of a Random policy
type Config struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	ScrollPause       time.Duration
	LongPauseInterval int
	LongPauseFactor   float64
}

// DefaultConfig mirrors the values the tool shipped with
func DefaultConfig() Config {
	return Config{
		MinDelay:          DefaultMinDelay,
		MaxDelay:          DefaultMaxDelay,
		ScrollPause:       DefaultScrollPause,
		LongPauseInterval: DefaultLongPauseInterval,
		LongPauseFactor:   DefaultLongPauseFactor,
	}
}

// Validate checks the delay range
func (c Config) Validate() error {
	var errs []error
	if c.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.MaxDelay < c.MinDelay {
		errs = append(errs, errors.New("max delay must not be lower than min delay"))
	}
	if c.ScrollPause < 0 {
		errs = append(errs, errors.New("scroll pause cannot be negative"))
	}
	if c.LongPauseInterval < 0 {
		errs = append(errs, errors.New("long pause interval cannot be negative"))
	}
	if c.LongPauseFactor < 1 {
		errs = append(errs, errors.New("long pause factor must be at least 1"))
	}
	return errors.Join(errs...)
}

// Random samples delays uniformly. It is not safe for concurrent use; a
// harvest has a single control flow.
type Random struct {
	cfg Config
	rng *rand.Rand
}

// NewRandom creates a Random policy. A nil rng seeds a new source from the clock.
func NewRandom(cfg Config, rng *rand.Rand) *Random {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Random{cfg: cfg, rng: rng}
}

func (r *Random) NextDelay() time.Duration {
	return r.between(r.cfg.MinDelay, r.cfg.MaxDelay)
}

func (r *Random) ShouldLongPause(actionCount int) bool {
	n := r.cfg.LongPauseInterval
	return n > 0 && actionCount > 0 && actionCount%n == 0
}

func (r *Random) LongPause() time.Duration {
	f := r.cfg.LongPauseFactor
	if f < 1 {
		f = 1
	}
	return r.between(
		time.Duration(float64(r.cfg.MinDelay)*f),
		time.Duration(float64(r.cfg.MaxDelay)*f),
	)
}

func (r *Random) ScrollPause() time.Duration {
	return r.cfg.ScrollPause
}

func (r *Random) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.rng.Int63n(int64(hi-lo)+1))
}

// Zero never waits. Use it in tests.
type Zero struct{}

func (Zero) NextDelay() time.Duration   { return 0 }
func (Zero) ShouldLongPause(int) bool   { return false }
func (Zero) LongPause() time.Duration   { return 0 }
func (Zero) ScrollPause() time.Duration { return 0 }

// Wait blocks for d or until ctx is done
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
