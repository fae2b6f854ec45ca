package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// PullRequest is the subset of pull request data a review needs
type PullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	State   string `json:"state"`
	Author  string `json:"author"`
	HeadSHA string `json:"head_sha"`
	HeadRef string `json:"head_ref"`
	BaseRef string `json:"base_ref"`
	HTMLURL string `json:"html_url"`
}

// ChangedFile is one file in a pull request diff
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// IsRemoved reports whether the pull request deletes the file
func (f ChangedFile) IsRemoved() bool {
	return f.Status == "removed"
}

// ReviewComment is a line comment on a pull request
type ReviewComment struct {
	CommitSHA string
	Path      string
	Line      int
	Body      string
}

// RateLimitStatus is the core API quota as reported by GitHub
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// RepoRef names a repository
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo parses "owner/repo"
func ParseRepo(fullName string) (RepoRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSuffix(strings.TrimSpace(fullName), ".git"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, errors.ValidationError(fmt.Sprintf("invalid repository %q, expected owner/repo", fullName))
	}
	return RepoRef{Owner: owner, Name: name}, nil
}

// ParsePullRequestURL parses https://github.com/owner/repo/pull/123
func ParsePullRequestURL(raw string) (RepoRef, int, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return RepoRef{}, 0, errors.ValidationError(fmt.Sprintf("invalid pull request URL %q", raw))
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return RepoRef{}, 0, errors.ValidationError(fmt.Sprintf("invalid pull request URL %q", raw))
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return RepoRef{}, 0, errors.ValidationError(fmt.Sprintf("invalid pull request number in %q", raw))
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, number, nil
}
