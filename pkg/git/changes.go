package git

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// ChangeKind is how a file changed
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
)

// ChangedFile is an added or modified file with its new content
type ChangedFile struct {
	Path      string     `json:"path"`
	Kind      ChangeKind `json:"kind"`
	Content   string     `json:"-"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

// ChangedFiles lists files added or modified on HEAD since it diverged from
// baseRef, like "git diff baseRef...HEAD". Deleted and binary files are skipped.
func (r *Repository) ChangedFiles(ctx context.Context, baseRef string) ([]ChangedFile, error) {
	baseHash, err := r.resolve(baseRef)
	if err != nil {
		return nil, err
	}
	headHash, err := r.resolve("HEAD")
	if err != nil {
		return nil, err
	}

	base, err := r.repo.CommitObject(baseHash)
	if err != nil {
		return nil, errors.GitError("load base commit", err)
	}
	head, err := r.repo.CommitObject(headHash)
	if err != nil {
		return nil, errors.GitError("load HEAD commit", err)
	}

	if bases, err := head.MergeBase(base); err == nil && len(bases) > 0 {
		base = bases[0]
	}

	baseTree, err := base.Tree()
	if err != nil {
		return nil, errors.GitError("load base tree", err)
	}
	headTree, err := head.Tree()
	if err != nil {
		return nil, errors.GitError("load HEAD tree", err)
	}

	changes, err := baseTree.DiffContext(ctx, headTree)
	if err != nil {
		return nil, errors.GitError("diff trees", err)
	}

	var files []ChangedFile
	for _, change := range changes {
		file, ok, err := changedFile(ctx, change)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, file)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func changedFile(ctx context.Context, change *object.Change) (ChangedFile, bool, error) {
	action, err := change.Action()
	if err != nil {
		return ChangedFile{}, false, errors.GitError("classify change", err)
	}

	var kind ChangeKind
	switch action {
	case merkletrie.Insert:
		kind = ChangeAdded
	case merkletrie.Modify:
		kind = ChangeModified
	default:
		return ChangedFile{}, false, nil
	}

	_, to, err := change.Files()
	if err != nil {
		return ChangedFile{}, false, errors.GitError("read changed file", err)
	}
	if binary, err := to.IsBinary(); err != nil || binary {
		return ChangedFile{}, false, nil
	}
	content, err := to.Contents()
	if err != nil {
		return ChangedFile{}, false, errors.GitError("read "+change.To.Name, err)
	}

	file := ChangedFile{Path: change.To.Name, Kind: kind, Content: content}
	if patch, err := change.PatchContext(ctx); err == nil {
		for _, stat := range patch.Stats() {
			file.Additions += stat.Addition
			file.Deletions += stat.Deletion
		}
	}
	return file, true, nil
}

// WorkingTreeChanges lists uncommitted added, modified and untracked files,
// read from disk
func (r *Repository) WorkingTreeChanges() ([]ChangedFile, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.GitError("open worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.GitError("read status", err)
	}

	var files []ChangedFile
	for path, s := range status {
		var kind ChangeKind
		switch {
		case s.Worktree == git.Deleted || s.Staging == git.Deleted:
			continue
		case s.Worktree == git.Untracked || s.Staging == git.Added:
			kind = ChangeAdded
		case s.Worktree == git.Modified || s.Staging == git.Modified:
			kind = ChangeModified
		default:
			continue
		}

		full := filepath.Join(r.root, filepath.FromSlash(path))
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, errors.FileSystemError(full, err)
		}
		files = append(files, ChangedFile{Path: path, Kind: kind, Content: string(data)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
