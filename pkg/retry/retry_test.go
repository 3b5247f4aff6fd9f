package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 4 * time.Millisecond
	cfg.JitterStrategy = JitterNone
	cfg.After = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return cfg
}

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDoWithRetryable_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := DoWithRetryable(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, isTransient)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithRetryable_NonRetryableReturnedAsIs(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := DoWithRetryable(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		return permanent
	}, isTransient)

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithRetryable_Exhausted(t *testing.T) {
	var retries []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error, _ time.Duration) { retries = append(retries, attempt) }

	err := DoWithRetryable(context.Background(), cfg, func(context.Context) error { return errTransient }, isTransient)

	var rex *RetriesExceededError
	require.ErrorAs(t, err, &rex)
	assert.Equal(t, 3, rex.Attempts)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDoWithRetryable_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DoWithRetryable(ctx, fastConfig(), func(context.Context) error {
		t.Fatal("must not run")
		return nil
	}, isTransient)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"zero delay", func(c *Config) { c.InitialDelay = 0 }, true},
		{"initial above max", func(c *Config) { c.InitialDelay = time.Minute }, true},
		{"shrinking multiplier", func(c *Config) { c.Multiplier = 0.5 }, true},
		{"negative budget", func(c *Config) { c.MaxElapsedTime = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, cfg.InitialDelay, cfg.MinDelay)
		})
	}
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MinDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, cfg.backoff(1))
	assert.Equal(t, 200*time.Millisecond, cfg.backoff(2))
	assert.Equal(t, 800*time.Millisecond, cfg.backoff(4))
	assert.Equal(t, time.Second, cfg.backoff(5))
	assert.Equal(t, time.Second, cfg.backoff(50))
}

func TestDefaultRetryable(t *testing.T) {
	assert.False(t, DefaultRetryable(nil))
	assert.False(t, DefaultRetryable(context.Canceled))
	assert.True(t, DefaultRetryable(context.DeadlineExceeded))
	assert.False(t, DefaultRetryable(errors.New("plain")))
}
