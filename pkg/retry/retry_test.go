package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "otwscraper/pkg/errors"
	"otwscraper/pkg/logger"
)

// fastConfig retries everything with a 1ms pause
func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(error) bool { return true },
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	want := []time.Duration{0, 100, 200, 400, 800, 1000, 1000}
	for attempt, ms := range want {
		if got := backoff.NextDelay(attempt); got != ms*time.Millisecond {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, ms*time.Millisecond)
		}
	}
}

func TestJitterStaysInRange(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	seen := make(map[time.Duration]bool)
	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		if d < 140*time.Millisecond || d > 260*time.Millisecond {
			t.Fatalf("NextDelay(2) = %v, outside 200ms ±30%%", d)
		}
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should vary the delay")
}

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 3 * time.Second}
	assert.Zero(t, backoff.NextDelay(0))
	assert.Equal(t, 3*time.Second, backoff.NextDelay(1))
	assert.Equal(t, 3*time.Second, backoff.NextDelay(9))
}

func TestDoRecoversFromFlakyNavigation(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.New(errs.KindNavigation, "open search", errors.New("net::ERR_TIMED_OUT"))
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	pageErr := errors.New("net::ERR_CONNECTION_RESET")

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return pageErr
	}, fastConfig(3))

	assert.ErrorIs(t, err, pageErr)
	assert.ErrorContains(t, err, "max retry attempts (3) exceeded")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnAuthError(t *testing.T) {
	calls := 0
	authErr := errs.New(errs.KindAuth, "load session", errors.New("li_at cookie rejected"))

	cfg := fastConfig(5)
	cfg.RetryIf = DefaultRetryIf
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return authErr
	}, cfg)

	assert.Same(t, authErr, err)
	assert.Equal(t, 1, calls, "auth errors are not retried")
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0

	cfg := fastConfig(5)
	cfg.Backoff = &ConstantBackoff{Delay: 100 * time.Millisecond}
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("page load failed")
	}, cfg)

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(fmt.Errorf("navigate: %w", context.DeadlineExceeded)))
	assert.True(t, DefaultRetryIf(errs.New(errs.KindNavigation, "open search", errors.New("net::ERR_TIMED_OUT"))))
	assert.False(t, DefaultRetryIf(errs.New(errs.KindConfig, "load", errors.New("bad yaml"))))
	assert.True(t, DefaultRetryIf(errors.New("untagged")))
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()

	navBackoff := etb.ForError(errs.New(errs.KindNavigation, "open search", errors.New("timeout")))
	if eb, ok := navBackoff.(*ExponentialBackoff); ok {
		if eb.BaseDelay != 2*time.Second {
			t.Errorf("Expected navigation base delay of 2s, got %v", eb.BaseDelay)
		}
	} else {
		t.Error("Expected ExponentialBackoff for navigation errors")
	}

	quota := errs.WithCode(errs.KindRateLimit, "sheets append", 429, errors.New("quota"))
	rateLimitBackoff := etb.ForError(fmt.Errorf("wrapped: %w", quota))
	if eb, ok := rateLimitBackoff.(*ExponentialBackoff); ok {
		if eb.BaseDelay != 30*time.Second {
			t.Errorf("Expected rate limit base delay of 30s, got %v", eb.BaseDelay)
		}
	} else {
		t.Error("Expected ExponentialBackoff for rate limit errors")
	}

	server := etb.ForError(errs.WithCode(errs.KindServer, "sheets append", 503, errors.New("unavailable")))
	assert.IsType(t, &LinearBackoff{}, server)

	assert.Same(t, etb.DefaultBackoff, etb.ForError(errors.New("plain")))
}

func TestBackoffForOverridesBackoff(t *testing.T) {
	var delays []time.Duration
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		BackoffFor: func(err error) BackoffStrategy {
			return &ConstantBackoff{Delay: time.Millisecond}
		},
		RetryIf: func(err error) bool { return true },
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("again")
	}, cfg)
	require.Error(t, err)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, delays)
}

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  500 * time.Millisecond,
		Increment: 100 * time.Millisecond,
	}

	want := []time.Duration{0, 100, 200, 300, 400, 500, 500}
	for attempt, ms := range want {
		if got := backoff.NextDelay(attempt); got != ms*time.Millisecond {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, ms*time.Millisecond)
		}
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	header, err := DoWithResult(context.Background(), func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errs.WithCode(errs.KindServer, "read header", 503, errors.New("backend error"))
		}
		return []string{"Name", "Title", "Location"}, nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Title", "Location"}, header)
	assert.Equal(t, 2, calls)
}

func TestRetrierWithOp(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewRetrier(&Config{
		MaxAttempts: 2,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      log,
	}).WithOp("open search")

	err := r.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("net::ERR_CONNECTION_RESET")
	})
	require.Error(t, err)

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "open search", warns[0].Fields["op"])
}
