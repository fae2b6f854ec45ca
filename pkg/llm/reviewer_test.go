package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/logger"
)

// scriptedClient replays canned results in order and records prompts
type scriptedClient struct {
	mu        sync.Mutex
	available bool
	results   []scriptedResult
	prompts   []string
}

type scriptedResult struct {
	content string
	err     error
}

func (c *scriptedClient) Provider() Provider { return ProviderAnthropic }
func (c *scriptedClient) IsAvailable() bool  { return c.available }

func (c *scriptedClient) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, req.UserPrompt)
	if len(c.results) == 0 {
		return nil, fmt.Errorf("no scripted result")
	}
	r := c.results[0]
	if len(c.results) > 1 {
		c.results = c.results[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &CompletionResponse{Content: r.content}, nil
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, logger.LevelError)
}

func newTestReviewer(t *testing.T, client Client) *Reviewer {
	t.Helper()
	r, err := NewReviewer(client, quietLogger())
	require.NoError(t, err)
	return r
}

func TestMockSnippetReview(t *testing.T) {
	r := newTestReviewer(t, nil)
	assert.True(t, r.IsMock())
	assert.Equal(t, "mock", r.Provider())

	tests := []struct {
		name string
		code string
		want []string
	}{
		{
			name: "plain code gets defaults",
			code: "# add\nx = 1 + 2",
			want: []string{
				"Ensure proper error handling is implemented.",
				"Add unit tests to verify functionality.",
				"Consider adding type hints for better code clarity.",
			},
		},
		{
			name: "todo without comments",
			code: "x = 1 TODO",
			want: []string{
				"Address TODO/FIXME comments before production deployment.",
				"Add comments to explain complex logic and improve code documentation.",
			},
		},
		{
			name: "secret",
			code: "// config\nAPI_KEY = 'abc'",
			want: []string{"⚠️ SECURITY: Avoid hardcoding sensitive information. Use environment variables."},
		},
		{
			name: "long code",
			code: "// long\n" + strings.Repeat("x = 1\n", 60),
			want: []string{"Consider breaking this code into smaller functions for better maintainability."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ReviewSnippet(context.Background(), tt.code, "python", "")
			require.NoError(t, err)
			assert.True(t, got.Mock)
			assert.Equal(t, tt.want, got.Suggestions)
			assert.Contains(t, got.Review, "Mock Mode")
		})
	}
}

func TestMockReviewCountsLines(t *testing.T) {
	r := newTestReviewer(t, &scriptedClient{available: false})
	got, err := r.ReviewSnippet(context.Background(), "\n\na\nb\nc\n\n", "", "")
	require.NoError(t, err)
	assert.Contains(t, got.Review, "Lines of code: 3")
}

func TestReviewSnippetWithModel(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{content: "Solid code.\nSuggestions:\n- Add tests"},
	}}
	r := newTestReviewer(t, client)

	got, err := r.ReviewSnippet(context.Background(), "print(1)", "python", "CLI entrypoint")
	require.NoError(t, err)
	assert.False(t, got.Mock)
	assert.Equal(t, "Solid code.", got.Review)
	assert.Equal(t, []string{"Add tests"}, got.Suggestions)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "```python\nprint(1)\n```")
	assert.Contains(t, client.prompts[0], "Additional context: CLI entrypoint")
}

func TestReviewSnippetProviderError(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{err: errors.AuthenticationError("anthropic")},
	}}
	r := newTestReviewer(t, client)

	_, err := r.ReviewSnippet(context.Background(), "x", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
}

func TestReviewFile(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{content: `{"overall_score": 80, "issues": [], "summary": "fine"}`},
	}}
	r := newTestReviewer(t, client)

	got, err := r.ReviewFile(context.Background(), "x = 1", "a.py", "python", map[string]any{"pr": 7})
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.OverallScore)
	assert.Equal(t, "fine", got.Summary)
	assert.Contains(t, client.prompts[0], "File: a.py")
	assert.Contains(t, client.prompts[0], `"pr": 7`)

	mock, err := newTestReviewer(t, nil).ReviewFile(context.Background(), "x", "a.py", "python", nil)
	require.NoError(t, err)
	assert.True(t, mock.Mock)
	assert.Empty(t, mock.Issues)
}

func TestDetectPatterns(t *testing.T) {
	client := &scriptedClient{available: true, results: []scriptedResult{
		{content: `{"patterns": [{"name": "God Object", "type": "anti_pattern", "line": 1}]}`},
	}}
	r := newTestReviewer(t, client)

	got, err := r.DetectPatterns(context.Background(), "class A: pass", "python",
		[]CustomPattern{{Name: "no-print", Description: "print statements in library code"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "God Object", got[0].Name)
	assert.Contains(t, client.prompts[0], "no-print")

	none, err := newTestReviewer(t, nil).DetectPatterns(context.Background(), "x", "python", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSuggestMigration(t *testing.T) {
	_, err := newTestReviewer(t, nil).SuggestMigration(context.Background(), "x", "py2", "py3", "python")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	client := &scriptedClient{available: true, results: []scriptedResult{
		{content: `{"migration_complexity": "low", "migration_steps": ["swap print"]}`},
	}}
	r := newTestReviewer(t, client)

	_, err = r.SuggestMigration(context.Background(), "x", "", "py3", "python")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	plan, err := r.SuggestMigration(context.Background(), "print 'x'", "python2", "python3", "python")
	require.NoError(t, err)
	assert.Equal(t, "low", plan.MigrationComplexity)
	assert.Equal(t, []string{"swap print"}, plan.MigrationSteps)
	assert.Contains(t, client.prompts[0], "Source: python2")
	assert.Contains(t, client.prompts[0], "Target: python3")
}
