package pacing

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomNextDelayWithinRange(t *testing.T) {
	cfg := DefaultConfig()
	p := NewRandom(cfg, rand.New(rand.NewSource(42)))

	for i := 0; i < 500; i++ {
		d := p.NextDelay()
		assert.GreaterOrEqual(t, d, cfg.MinDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestRandomNextDelayVaries(t *testing.T) {
	p := NewRandom(DefaultConfig(), rand.New(rand.NewSource(7)))

	seen := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		seen[p.NextDelay()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestRandomFixedRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinDelay = 3 * time.Second
	cfg.MaxDelay = 3 * time.Second
	p := NewRandom(cfg, nil)

	assert.Equal(t, 3*time.Second, p.NextDelay())
}

func TestShouldLongPause(t *testing.T) {
	p := NewRandom(DefaultConfig(), nil)

	assert.False(t, p.ShouldLongPause(0))
	assert.False(t, p.ShouldLongPause(49))
	assert.True(t, p.ShouldLongPause(50))
	assert.False(t, p.ShouldLongPause(51))
	assert.True(t, p.ShouldLongPause(100))
}

func TestShouldLongPauseDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongPauseInterval = 0
	p := NewRandom(cfg, nil)

	assert.False(t, p.ShouldLongPause(50))
}

func TestLongPauseIsMultipleOfBaseRange(t *testing.T) {
	cfg := DefaultConfig()
	p := NewRandom(cfg, rand.New(rand.NewSource(1)))

	for i := 0; i < 100; i++ {
		d := p.LongPause()
		assert.GreaterOrEqual(t, d, 12*time.Second)
		assert.LessOrEqual(t, d, 30*time.Second)
	}
}

func TestForPicksLongPauseOnInterval(t *testing.T) {
	cfg := DefaultConfig()
	p := NewRandom(cfg, rand.New(rand.NewSource(3)))

	assert.GreaterOrEqual(t, For(p, 50), 12*time.Second)
	assert.LessOrEqual(t, For(p, 51), cfg.MaxDelay)
}

func TestZeroPolicy(t *testing.T) {
	var p Policy = Zero{}

	assert.Zero(t, p.NextDelay())
	assert.Zero(t, p.LongPause())
	assert.Zero(t, p.ScrollPause())
	assert.False(t, p.ShouldLongPause(50))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MinDelay = 10 * time.Second
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LongPauseFactor = 0.5
	assert.Error(t, cfg.Validate())
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Wait(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
