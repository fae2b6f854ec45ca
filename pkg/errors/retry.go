package errors

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fumiya-kume/cra/pkg/clock"
)

// RetryConfig is an exponential backoff schedule. The wait before attempt n+1
// is InitialInterval*Multiplier^(n-1), capped at MaxInterval, then spread by
// up to RandomizationFactor in either direction.
type RetryConfig struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultRetryConfig suits calls to LLM providers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:         3,
		InitialInterval:     time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.1,
	}
}

type RetryableFunc func() error

// ShouldRetryFunc decides whether err is worth another attempt
type ShouldRetryFunc func(error) bool

// DefaultShouldRetry retries any typed error marked recoverable
func DefaultShouldRetry(err error) bool {
	return err != nil && IsRecoverable(err)
}

// TransientShouldRetry retries network failures and throttling, nothing else
func TransientShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	t := TypeOf(err)
	return t == ErrorTypeNetwork || t == ErrorTypeRateLimit
}

func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc, shouldRetry ShouldRetryFunc) error {
	return RetryWithClock(ctx, clock.NewRealClock(), config, fn, shouldRetry)
}

// RetryWithClock runs fn until it succeeds, returns an error shouldRetry
// rejects, or runs out of attempts. Waits are measured on clk. A canceled
// context is returned as is.
func RetryWithClock(ctx context.Context, clk clock.Clock, config RetryConfig, fn RetryableFunc, shouldRetry ShouldRetryFunc) error {
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var (
		err  error
		wait = config.InitialInterval
	)
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(); err == nil || !shouldRetry(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(wait):
		}
		wait = nextInterval(wait, config)
	}

	return NewError(ErrorTypeSystem).
		WithMessagef("gave up after %d attempts: %s", config.MaxAttempts, MessageOf(err)).
		WithCause(err).
		WithSeverity(SeverityHigh).
		WithContext("max_attempts", config.MaxAttempts).
		Build()
}

// nextInterval multiplies, caps, then jitters
func nextInterval(wait time.Duration, config RetryConfig) time.Duration {
	next := min(time.Duration(float64(wait)*config.Multiplier), config.MaxInterval)
	if spread := float64(next) * config.RandomizationFactor; spread >= 1 {
		next += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	return next
}
