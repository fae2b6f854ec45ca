package storage

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := Open(config.DatabaseConfig{
		DSN:          filepath.Join(t.TempDir(), "db", "cra.db"),
		MaxOpenConns: 1,
	}, logger.NewWithWriter(io.Discard, logger.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func intPtr(n int) *int { return &n }

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	repo := NewRepository("cra", "fumiya/cra", "https://github.com/fumiya/cra", "github")
	require.NoError(t, store.CreateRepository(ctx, repo))
	assert.NotZero(t, repo.ID)

	inactive := NewRepository("old", "fumiya/old", "https://github.com/fumiya/old", "github")
	inactive.IsActive = false
	require.NoError(t, store.CreateRepository(ctx, inactive))

	t.Run("duplicate full name", func(t *testing.T) {
		err := store.CreateRepository(ctx, NewRepository("cra", "fumiya/cra", "x", "github"))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, ErrDuplicate))
		assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	})

	t.Run("list returns active only", func(t *testing.T) {
		repos, err := store.ListRepositories(ctx)
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, "fumiya/cra", repos[0].FullName)
	})

	t.Run("get", func(t *testing.T) {
		got, err := store.GetRepository(ctx, repo.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/fumiya/cra", got.URL)
		assert.True(t, got.AutoReviewEnabled)

		_, err = store.GetRepository(ctx, 9999)
		assert.True(t, stderrors.Is(err, ErrNotFound))
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

		byName, err := store.GetRepositoryByFullName(ctx, "fumiya/cra")
		require.NoError(t, err)
		assert.Equal(t, repo.ID, byName.ID)
	})

	t.Run("stats", func(t *testing.T) {
		require.NoError(t, store.RecordRepositoryReview(ctx, repo.ID, 4))
		require.NoError(t, store.RecordRepositoryReview(ctx, repo.ID, 3))

		got, err := store.GetRepository(ctx, repo.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalReviews)
		assert.Equal(t, 7, got.TotalIssuesFound)

		assert.True(t, stderrors.Is(store.RecordRepositoryReview(ctx, 9999, 1), ErrNotFound))
	})
}

func TestReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	review := &CodeReview{RepositoryName: "fumiya/cra", PRNumber: 12, CommitSHA: "abc123"}
	require.NoError(t, store.CreateReview(ctx, review))
	assert.NotZero(t, review.ID)
	assert.Len(t, review.UUID, 36)
	assert.Equal(t, StatusPending, review.Status)

	review.Status = StatusInProgress
	require.NoError(t, store.UpdateReview(ctx, review))

	comments := []ReviewComment{
		{FilePath: "app.py", LineNumber: intPtr(3), Severity: "high", Category: "security", Title: "Eval Usage", Description: "Potential eval usage detected"},
		{FilePath: "app.py", Severity: "low", Category: "style", Title: "Long Lines", Description: "Some lines exceed 120 characters"},
	}
	require.NoError(t, store.AddComments(ctx, review.ID, comments))
	require.NoError(t, store.AddComments(ctx, review.ID, nil))

	review.Status = StatusCompleted
	review.TotalIssues = 2
	review.CriticalIssues = 1
	require.NoError(t, store.UpdateReview(ctx, review))

	for _, id := range []string{strconv.FormatUint(uint64(review.ID), 10), review.UUID} {
		got, err := store.GetReview(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.Equal(t, 2, got.TotalIssues)
		require.Len(t, got.Comments, 2)
		assert.Equal(t, "Eval Usage", got.Comments[0].Title)
		assert.Equal(t, 3, *got.Comments[0].LineNumber)
		assert.Nil(t, got.Comments[1].LineNumber)
		assert.NotEmpty(t, got.Comments[1].UUID)
	}

	_, err := store.GetReview(ctx, "424242")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = store.GetReview(ctx, "not-an-id")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.True(t, errors.IsType(store.UpdateReview(ctx, &CodeReview{}), errors.ErrorTypeValidation))
}

func TestCompleteReview(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	review := &CodeReview{RepositoryName: "fumiya/cra", PRNumber: 3, Status: StatusInProgress}
	require.NoError(t, store.CreateReview(ctx, review))

	review.TotalIssues = 1
	comments := []ReviewComment{{FilePath: "a.go", Severity: "high", Category: "security", Title: "Eval Usage", Description: "eval"}}
	require.NoError(t, store.CompleteReview(ctx, review, comments))

	got, err := store.GetReview(ctx, review.UUID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1, got.TotalIssues)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, review.ID, got.Comments[0].ReviewID)

	assert.True(t, errors.IsType(store.CompleteReview(ctx, &CodeReview{}, nil), errors.ErrorTypeValidation))
}

func TestCompleteReviewRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	review := &CodeReview{RepositoryName: "fumiya/cra", Status: StatusInProgress}
	require.NoError(t, store.CreateReview(ctx, review))
	require.NoError(t, store.AddComments(ctx, review.ID, []ReviewComment{
		{UUID: "00000000-0000-0000-0000-000000000001", FilePath: "a.go", Severity: "low", Category: "style", Title: "t", Description: "d"},
	}))

	dup := []ReviewComment{
		{UUID: "00000000-0000-0000-0000-000000000001", FilePath: "b.go", Severity: "low", Category: "style", Title: "t", Description: "d"},
	}
	require.Error(t, store.CompleteReview(ctx, review, dup))

	got, err := store.GetReview(ctx, review.UUID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.Len(t, got.Comments, 1)
}

func TestReviewStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
