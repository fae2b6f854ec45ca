package llm

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/logger"
)

// ResilienceConfig tunes retries and the circuit breaker around a Client
type ResilienceConfig struct {
	Retry errors.RetryConfig
	// FailureThreshold consecutive transient failures open the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// DefaultResilienceConfig returns three attempts and a breaker that opens after five failures
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Retry:            errors.DefaultRetryConfig(),
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// ResilientClient retries transient failures and stops calling a provider that keeps failing
type ResilientClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker[*CompletionResponse]
	retry   errors.RetryConfig
	clock   clock.Clock
	logger  *logger.Logger
}

// NewResilientClient wraps client. A nil clock uses the real clock.
func NewResilientClient(client Client, cfg ResilienceConfig, clk clock.Clock, log *logger.Logger) *ResilientClient {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}

	rc := &ResilientClient{
		client: client,
		retry:  retry,
		clock:  clk,
		logger: log.WithPrefix("llm"),
	}
	rc.breaker = gobreaker.NewCircuitBreaker[*CompletionResponse](gobreaker.Settings{
		Name:        string(client.Provider()),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only provider outages count against the breaker; a bad key or request does not.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.TransientShouldRetry(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			rc.logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return rc
}

func (c *ResilientClient) Provider() Provider {
	return c.client.Provider()
}

func (c *ResilientClient) IsAvailable() bool {
	return c.client.IsAvailable()
}

// State exposes the breaker state for health reporting
func (c *ResilientClient) State() string {
	return c.breaker.State().String()
}

func (c *ResilientClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	attempt := 0

	err := errors.RetryWithClock(ctx, c.clock, c.retry, func() error {
		attempt++
		r, err := c.breaker.Execute(func() (*CompletionResponse, error) {
			return c.client.Complete(ctx, req)
		})
		if err != nil {
			if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
				return errors.NewError(errors.ErrorTypeLLM).
					WithMessagef("%s is temporarily disabled after repeated failures", c.client.Provider()).
					WithCause(err).
					WithRecoverable(false).
					WithContext("provider", string(c.client.Provider())).
					Build()
			}
			c.logger.Debug("completion attempt %d failed: %v", attempt, err)
			return err
		}
		resp = r
		return nil
	}, errors.TransientShouldRetry)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
