package github

import (
	"context"
)

// GitHubClient defines the GitHub operations used by pull request reviews
type GitHubClient interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	CreateReviewComment(ctx context.Context, owner, repo string, number int, comment ReviewComment) (int64, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)
	GetRateLimit(ctx context.Context) (*RateLimitStatus, error)
}

// Ensure our Client implements the interface
var _ GitHubClient = (*Client)(nil)
