package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/errors"
)

func fastResilience(threshold uint32) ResilienceConfig {
	return ResilienceConfig{
		Retry: errors.RetryConfig{
			MaxAttempts: 3,
			MaxInterval: time.Second,
			Multiplier:  1,
		},
		FailureThreshold: threshold,
		OpenTimeout:      time.Minute,
	}
}

func TestResilientClientRetriesTransientFailures(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{err: errors.RateLimitError("anthropic", nil)},
		{err: errors.NetworkError(nil)},
		{content: "third time lucky"},
	}}
	rc := NewResilientClient(client, fastResilience(10), clock.NewFakeClock(time.Now()), quietLogger())

	resp, err := rc.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", resp.Content)
	assert.Equal(t, 3, client.calls())
}

func TestResilientClientDoesNotRetryAuthFailures(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{err: errors.AuthenticationError("anthropic")},
	}}
	rc := NewResilientClient(client, fastResilience(10), clock.NewFakeClock(time.Now()), quietLogger())

	_, err := rc.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Equal(t, 1, client.calls())
	assert.Equal(t, "closed", rc.State())
}

func TestResilientClientOpensBreaker(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{err: errors.NetworkError(nil)},
	}}
	cfg := fastResilience(2)
	cfg.Retry.MaxAttempts = 1
	rc := NewResilientClient(client, cfg, clock.NewFakeClock(time.Now()), quietLogger())

	for i := 0; i < 2; i++ {
		_, err := rc.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
		require.Error(t, err)
	}
	assert.Equal(t, "open", rc.State())

	_, err := rc.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLLM))
	assert.False(t, errors.TransientShouldRetry(err))
	assert.Equal(t, 2, client.calls(), "an open breaker must not reach the provider")
}
