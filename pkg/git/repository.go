// Package git reads local repositories for reviews of unpushed changes.
package git

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// Repository is an opened local repository
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, searching parent directories for .git
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError(path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeGit).
			WithMessage("not a git repository").
			WithCause(err).
			WithContext("path", abs).
			WithSuggestion("Run cra inside a git checkout or pass --repo").
			Build()
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repository{repo: repo, root: root}, nil
}

// Root is the top of the working tree
func (r *Repository) Root() string {
	return r.root
}

// CurrentBranch returns the short name of HEAD, or the commit hash when detached
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.GitError("resolve HEAD", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// HeadSHA returns the commit HEAD points at
func (r *Repository) HeadSHA() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.GitError("resolve HEAD", err)
	}
	return head.Hash().String(), nil
}

// OriginURL returns the first URL of origin, or of the first remote when origin is missing
func (r *Repository) OriginURL() (string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil || len(remotes) == 0 {
		return "", errors.NewError(errors.ErrorTypeGit).
			WithMessage("no remotes found").
			WithCause(err).
			Build()
	}

	for _, remote := range remotes {
		if remote.Config().Name == git.DefaultRemoteName && len(remote.Config().URLs) > 0 {
			return remote.Config().URLs[0], nil
		}
	}
	if urls := remotes[0].Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}

	return "", errors.NewError(errors.ErrorTypeGit).
		WithMessage("no remote URLs found").
		Build()
}

// GitHubRepo parses owner and name from the origin remote
func (r *Repository) GitHubRepo() (owner, name string, err error) {
	url, err := r.OriginURL()
	if err != nil {
		return "", "", err
	}
	return ParseRemoteURL(url)
}

func (r *Repository) resolve(rev string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, errors.NewError(errors.ErrorTypeGit).
			WithMessagef("unknown revision %q", rev).
			WithCause(err).
			WithSeverity(errors.SeverityLow).
			Build()
	}
	return *hash, nil
}
