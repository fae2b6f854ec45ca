// Package github reads pull requests and posts review comments through the GitHub API.
package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/go-github/v60/github"

	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
)

// tokenForHost reads the GitHub CLI credential store
var tokenForHost = auth.TokenForHost

// Client wraps the GitHub REST API with a client-side rate limiter
type Client struct {
	apiClient   *github.Client
	rateLimiter *RateLimiter
	tokenSource string
}

// NewClient creates a client from configuration. The token comes from the config,
// then GITHUB_TOKEN, then the gh CLI. Without any token only public reads work.
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	return NewClientWithClock(cfg, clock.NewRealClock())
}

// NewClientWithClock is NewClient with a custom clock for the rate limiter
func NewClientWithClock(cfg config.GitHubConfig, clk clock.Clock) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	apiClient := github.NewClient(httpClient)

	token, source := resolveToken(cfg)
	if token != "" {
		apiClient = apiClient.WithAuthToken(token)
	}

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, errors.ConfigurationError(fmt.Sprintf("invalid github.base_url %q: %v", cfg.BaseURL, err))
		}
		apiClient.BaseURL = base
		apiClient.UploadURL = base
	}

	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = DefaultRequestsPerHour
	}

	return &Client{
		apiClient:   apiClient,
		rateLimiter: NewRateLimiterWithClock(perHour, time.Hour, clk),
		tokenSource: source,
	}, nil
}

func resolveToken(cfg config.GitHubConfig) (string, string) {
	if cfg.Token != "" {
		return cfg.Token, "config"
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, "GITHUB_TOKEN"
	}
	host := "github.com"
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	return tokenForHost(host)
}

// HasToken reports whether requests are authenticated
func (c *Client) HasToken() bool {
	return c.tokenSource != ""
}

// TokenSource names where the token came from, for diagnostics
func (c *Client) TokenSource() string {
	return c.tokenSource
}

// GetPullRequest retrieves a pull request
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	pr, _, err := c.apiClient.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get pull request %s/%s#%d", owner, repo, number), err)
	}

	return &PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		State:   pr.GetState(),
		Author:  pr.GetUser().GetLogin(),
		HeadSHA: pr.GetHead().GetSHA(),
		HeadRef: pr.GetHead().GetRef(),
		BaseRef: pr.GetBase().GetRef(),
		HTMLURL: pr.GetHTMLURL(),
	}, nil
}

// ListPullRequestFiles returns every changed file, following pagination
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var files []ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, resp, err := c.apiClient.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, mapError(fmt.Sprintf("list files of %s/%s#%d", owner, repo, number), err)
		}
		for _, f := range page {
			files = append(files, ChangedFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// GetFileContent returns the decoded content of path at ref
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	file, _, _, err := c.apiClient.Repositories.GetContents(ctx, owner, repo, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", mapError(fmt.Sprintf("get %s@%s", path, ref), err)
	}
	if file == nil {
		return "", errors.ValidationError(fmt.Sprintf("%s is a directory", path))
	}

	content, err := file.GetContent()
	if err != nil {
		return "", errors.GitHubError(fmt.Sprintf("decode %s", path), err)
	}
	return content, nil
}

// CreateReviewComment posts a comment on a line of the pull request diff
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, number int, comment ReviewComment) (int64, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	created, _, err := c.apiClient.PullRequests.CreateComment(ctx, owner, repo, number, &github.PullRequestComment{
		Body:     github.String(comment.Body),
		CommitID: github.String(comment.CommitSHA),
		Path:     github.String(comment.Path),
		Line:     github.Int(comment.Line),
		Side:     github.String("RIGHT"),
	})
	if err != nil {
		return 0, mapError(fmt.Sprintf("comment on %s:%d", comment.Path, comment.Line), err)
	}
	return created.GetID(), nil
}

// CreateIssueComment posts a top-level comment on the pull request conversation
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	created, _, err := c.apiClient.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return 0, mapError(fmt.Sprintf("comment on %s/%s#%d", owner, repo, number), err)
	}
	return created.GetID(), nil
}

// GetRateLimit returns the server-side core quota
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimitStatus, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	limits, _, err := c.apiClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, mapError("get rate limit", err)
	}
	core := limits.GetCore()
	return &RateLimitStatus{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

func mapError(op string, err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if stderrors.As(err, &rateErr) || stderrors.As(err, &abuseErr) {
		return errors.RateLimitError("github", err)
	}

	var ghErr *github.ErrorResponse
	if stderrors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return errors.NewError(errors.ErrorTypeNotFound).
				WithMessagef("%s: not found or not accessible", op).
				WithCause(err).
				WithSeverity(errors.SeverityLow).
				Build()
		case http.StatusUnauthorized:
			return errors.NewError(errors.ErrorTypeAuthentication).
				WithMessagef("%s: authentication failed", op).
				WithCause(err).
				WithSeverity(errors.SeverityHigh).
				WithSuggestion("Set github.token or GITHUB_TOKEN, or run 'gh auth login'").
				Build()
		case http.StatusForbidden:
			return errors.NewError(errors.ErrorTypeAuthentication).
				WithMessagef("%s: access forbidden", op).
				WithCause(err).
				WithSeverity(errors.SeverityHigh).
				WithSuggestion("Check that the token has the repo scope").
				Build()
		}
	}

	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return errors.NetworkError(err)
	}
	return errors.GitHubError(op, err)
}
