package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
)

func TestAnthropicComplete(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("Anthropic-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "Looks fine."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", ClientConfig{Model: "claude-test", MaxTokens: 100, BaseURL: server.URL})
	resp, err := client.Complete(context.Background(), &CompletionRequest{SystemPrompt: "sys", UserPrompt: "review this"})
	require.NoError(t, err)

	assert.Equal(t, "Looks fine.", resp.Content)
	assert.Equal(t, "msg_1", resp.RequestID)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "review this", got.Messages[0].Content)
}

func TestOpenAIComplete(t *testing.T) {
	var got openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 7, "completion_tokens": 1}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", ClientConfig{BaseURL: server.URL})
	resp, err := client.Complete(context.Background(), &CompletionRequest{SystemPrompt: systemPrompt, UserPrompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 1}, resp.Usage)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantType    errors.ErrorType
		recoverable bool
		transient   bool
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrorTypeAuthentication, false, false},
		{"forbidden", http.StatusForbidden, errors.ErrorTypeAuthentication, false, false},
		{"rate limited", http.StatusTooManyRequests, errors.ErrorTypeRateLimit, true, true},
		{"server error", http.StatusInternalServerError, errors.ErrorTypeNetwork, true, true},
		{"overloaded", 529, errors.ErrorTypeNetwork, true, true},
		{"bad request", http.StatusBadRequest, errors.ErrorTypeLLM, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"type": "x", "message": "nope"}}`))
			}))
			defer server.Close()

			client := NewAnthropicClient("k", ClientConfig{BaseURL: server.URL})
			_, err := client.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
			require.Error(t, err)

			assert.Equal(t, tt.wantType, errors.TypeOf(err))
			assert.Equal(t, tt.recoverable, errors.IsRecoverable(err))
			assert.Equal(t, tt.transient, errors.TransientShouldRetry(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestUnreachableProviderIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewOpenAIClient("k", ClientConfig{BaseURL: url})
	_, err := client.Complete(context.Background(), &CompletionRequest{UserPrompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}

func TestNewClientSelectsProvider(t *testing.T) {
	cfg := config.DefaultConfig().LLM

	cfg.Provider = config.ProviderAnthropic
	cfg.AnthropicAPIKey = "a"
	client := NewClient(cfg)
	assert.Equal(t, ProviderAnthropic, client.Provider())
	assert.True(t, client.IsAvailable())

	cfg.Provider = config.ProviderOpenAI
	client = NewClient(cfg)
	assert.Equal(t, ProviderOpenAI, client.Provider())
	assert.False(t, client.IsAvailable(), "openai key is not set")
}
