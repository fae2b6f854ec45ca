package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/github"
	"github.com/fumiya-kume/cra/pkg/review"
)

const (
	platformGitHub = "github"
	platformGitLab = "gitlab"
)

type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Event   string `json:"event,omitempty"`
}

func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	event, err := github.ParseWebhook(r, s.options.GitHubWebhookSecret)
	if err != nil {
		s.metrics.observeWebhook(platformGitHub, r.Header.Get("X-GitHub-Event"), "rejected")
		s.writeErr(w, r, err)
		return
	}
	s.logger.Info("received GitHub webhook %s (delivery: %s)", event.Type, event.Delivery)

	if event.Type == github.EventPing {
		s.metrics.observeWebhook(platformGitHub, event.Type, "ok")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ok", Message: "Webhook configured successfully"})
		return
	}
	if !event.WantsReview() {
		s.metrics.observeWebhook(platformGitHub, event.Type, "ignored")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Event: event.Type})
		return
	}

	postComments, enabled := s.autoReviewSettings(r.Context(), event.Repo.String())
	if !enabled {
		s.metrics.observeWebhook(platformGitHub, event.Type, "ignored")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Message: "auto review disabled for " + event.Repo.String()})
		return
	}

	req := review.PRRequest{Repository: event.Repo.String(), PRNumber: event.Number, PostComments: postComments}
	s.logger.Info("PR %s: %s#%d (%s)", event.Action, req.Repository, req.PRNumber, event.HeadSHA)
	s.dispatch(fmt.Sprintf("review of %s#%d", req.Repository, req.PRNumber), func(ctx context.Context) error {
		_, err := s.deps.Reviews.ReviewPullRequest(ctx, req)
		s.metrics.observeReview("webhook", err)
		return err
	})

	s.metrics.observeWebhook(platformGitHub, event.Type, "accepted")
	writeJSON(w, http.StatusAccepted, webhookResponse{
		Status:  "accepted",
		Message: fmt.Sprintf("Review queued for PR #%d", req.PRNumber),
	})
}

// autoReviewSettings applies the per-repository switches when the
// repository is registered; unknown repositories use the server defaults
func (s *Server) autoReviewSettings(ctx context.Context, fullName string) (postComments, enabled bool) {
	postComments = s.options.AutoComment
	if s.deps.Store == nil {
		return postComments, true
	}
	repo, err := s.deps.Store.GetRepositoryByFullName(ctx, fullName)
	if err != nil {
		return postComments, true
	}
	return postComments || repo.AutoCommentEnabled, repo.IsActive && repo.AutoReviewEnabled
}

type gitlabEvent struct {
	ObjectKind       string `json:"object_kind"`
	ObjectAttributes struct {
		Action string `json:"action"`
		IID    int    `json:"iid"`
	} `json:"object_attributes"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
}

var gitlabReviewActions = map[string]bool{
	"open":   true,
	"update": true,
	"reopen": true,
}

func (s *Server) handleGitLabWebhook(w http.ResponseWriter, r *http.Request) {
	if token := s.options.GitLabWebhookToken; token != "" {
		got := r.Header.Get("X-Gitlab-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			s.metrics.observeWebhook(platformGitLab, "", "rejected")
			s.writeErr(w, r, errors.AuthenticationError("gitlab webhook"))
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeErr(w, r, errors.ValidationError("unable to read request body"))
		return
	}
	var event gitlabEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.writeErr(w, r, errors.ValidationError("invalid gitlab payload"))
		return
	}
	s.logger.Info("received GitLab webhook %s", event.ObjectKind)

	if event.ObjectKind != "merge_request" || !gitlabReviewActions[event.ObjectAttributes.Action] {
		s.metrics.observeWebhook(platformGitLab, event.ObjectKind, "ignored")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Event: event.ObjectKind})
		return
	}

	s.logger.Info("MR %s: %s!%d", event.ObjectAttributes.Action, event.Project.PathWithNamespace, event.ObjectAttributes.IID)
	s.metrics.observeWebhook(platformGitLab, event.ObjectKind, "accepted")
	writeJSON(w, http.StatusAccepted, webhookResponse{
		Status:  "accepted",
		Message: fmt.Sprintf("Review queued for MR !%d", event.ObjectAttributes.IID),
	})
}
