package github

import (
	"fmt"
	"net/http"

	"github.com/google/go-github/v60/github"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// Webhook event names handled by the server
const (
	EventPing        = "ping"
	EventPullRequest = "pull_request"
)

var reviewActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// WebhookEvent is a verified GitHub delivery reduced to what a review needs
type WebhookEvent struct {
	Type     string
	Action   string
	Delivery string
	Repo     RepoRef
	Number   int
	HeadSHA  string
}

// WantsReview reports whether the event should trigger a pull request review
func (e *WebhookEvent) WantsReview() bool {
	return e.Type == EventPullRequest && reviewActions[e.Action]
}

// ParseWebhook reads and verifies a delivery. When secret is set the
// X-Hub-Signature-256 header must be present and valid.
func ParseWebhook(r *http.Request, secret string) (*WebhookEvent, error) {
	eventType := github.WebHookType(r)
	if eventType == "" {
		return nil, errors.ValidationError("missing X-GitHub-Event header")
	}

	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	payload, err := github.ValidatePayload(r, key)
	if err != nil {
		if secret != "" {
			return nil, errors.NewError(errors.ErrorTypeAuthentication).
				WithMessage("invalid webhook signature").
				WithCause(err).
				Build()
		}
		return nil, errors.ValidationError(fmt.Sprintf("invalid webhook payload: %v", err))
	}

	event := &WebhookEvent{Type: eventType, Delivery: github.DeliveryID(r)}
	if eventType != EventPullRequest {
		return event, nil
	}

	parsed, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid %s payload: %v", eventType, err))
	}
	pr, ok := parsed.(*github.PullRequestEvent)
	if !ok {
		return nil, errors.ValidationError("unexpected pull_request payload")
	}

	event.Action = pr.GetAction()
	event.Number = pr.GetNumber()
	if event.Number == 0 {
		event.Number = pr.GetPullRequest().GetNumber()
	}
	event.HeadSHA = pr.GetPullRequest().GetHead().GetSHA()
	event.Repo = RepoRef{
		Owner: pr.GetRepo().GetOwner().GetLogin(),
		Name:  pr.GetRepo().GetName(),
	}
	return event, nil
}
