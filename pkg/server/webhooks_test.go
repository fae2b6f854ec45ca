package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/storage"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pullRequestPayload(t *testing.T, action string) string {
	return jsonBody(t, map[string]any{
		"action": action,
		"number": 42,
		"pull_request": map[string]any{
			"number": 42,
			"head":   map[string]any{"sha": "abc123"},
		},
		"repository": map[string]any{
			"name":      "cra",
			"full_name": "octo/cra",
			"owner":     map[string]any{"login": "octo"},
		},
	})
}

func githubHeaders(event, signature string) map[string]string {
	h := map[string]string{"X-GitHub-Event": event, "X-GitHub-Delivery": "d-1"}
	if signature != "" {
		h["X-Hub-Signature-256"] = signature
	}
	return h
}

func TestGitHubWebhook(t *testing.T) {
	const secret = "s3cret"
	s, reviews := newTestServer(t, Options{GitHubWebhookSecret: secret}, Dependencies{})
	h := s.Handler()

	t.Run("missing event header", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/webhooks/github", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		body := pullRequestPayload(t, "opened")
		rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", sign("wrong", body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing signature", func(t *testing.T) {
		body := pullRequestPayload(t, "opened")
		rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ping", func(t *testing.T) {
		body := `{"zen":"Keep it simple."}`
		rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("ping", sign(secret, body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "ok", decode(t, rec)["status"])
	})

	t.Run("ignored action", func(t *testing.T) {
		body := pullRequestPayload(t, "closed")
		rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", sign(secret, body)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ignored", decode(t, rec)["status"])
	})

	t.Run("ignored event", func(t *testing.T) {
		body := `{"ref":"refs/heads/main"}`
		rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("push", sign(secret, body)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "push", decode(t, rec)["event"])
	})

	for _, action := range []string{"opened", "synchronize", "reopened"} {
		t.Run(action, func(t *testing.T) {
			body := pullRequestPayload(t, action)
			rec := do(t, h, http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", sign(secret, body)))
			require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
			assert.Equal(t, "Review queued for PR #42", decode(t, rec)["message"])
		})
	}

	s.Wait()
	prs := reviews.prRequests()
	require.Len(t, prs, 3)
	assert.Equal(t, review.PRRequest{Repository: "octo/cra", PRNumber: 42}, prs[0])
}

func TestGitHubWebhookWithoutSecret(t *testing.T) {
	s, reviews := newTestServer(t, Options{AutoComment: true}, Dependencies{})

	body := pullRequestPayload(t, "opened")
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/webhooks/github", body, githubHeaders("pull_request", ""))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	s.Wait()
	prs := reviews.prRequests()
	require.Len(t, prs, 1)
	assert.True(t, prs[0].PostComments)
}

func TestGitHubWebhookHonoursRepositorySettings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := storage.NewRepository("cra", "octo/cra", "https://github.com/octo/cra", "github")
	repo.AutoReviewEnabled = false
	require.NoError(t, store.CreateRepository(ctx, repo))

	s, reviews := newTestServer(t, Options{}, Dependencies{Store: store})
	body := pullRequestPayload(t, "opened")
	rec := do(t, s.Handler(), http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decode(t, rec)["status"])

	s.Wait()
	assert.Empty(t, reviews.prRequests())
}

func TestWebhookReviewFailureIsLogged(t *testing.T) {
	reviews := &fakeReviews{prErr: context.DeadlineExceeded}
	s, _ := newTestServer(t, Options{}, Dependencies{Reviews: reviews})

	body := pullRequestPayload(t, "opened")
	rec := do(t, s.Handler(), http.MethodPost, "/webhooks/github", body, githubHeaders("pull_request", ""))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background review did not finish")
	}
}

func TestGitLabWebhook(t *testing.T) {
	s, _ := newTestServer(t, Options{GitLabWebhookToken: "tok"}, Dependencies{})
	h := s.Handler()

	mr := func(action string) string {
		return jsonBody(t, map[string]any{
			"object_kind":       "merge_request",
			"object_attributes": map[string]any{"action": action, "iid": 9},
			"project":           map[string]any{"path_with_namespace": "group/app"},
		})
	}
	auth := map[string]string{"X-Gitlab-Token": "tok"}

	rec := do(t, h, http.MethodPost, "/webhooks/gitlab", mr("open"), map[string]string{"X-Gitlab-Token": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, action := range []string{"open", "update", "reopen"} {
		rec := do(t, h, http.MethodPost, "/webhooks/gitlab", mr(action), auth)
		require.Equal(t, http.StatusAccepted, rec.Code, action)
		assert.Equal(t, "Review queued for MR !9", decode(t, rec)["message"])
	}

	rec = do(t, h, http.MethodPost, "/webhooks/gitlab", mr("merge"), auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decode(t, rec)["status"])

	rec = do(t, h, http.MethodPost, "/webhooks/gitlab", `{"object_kind":"push"}`, auth)
	assert.Equal(t, "push", decode(t, rec)["event"])

	rec = do(t, h, http.MethodPost, "/webhooks/gitlab", `not json`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
