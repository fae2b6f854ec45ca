package review

import (
	"context"
	"fmt"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/git"
	"github.com/fumiya-kume/cra/pkg/storage"
)

// ReviewLocalChanges reviews files changed in a local repository, either
// committed since BaseRef or uncommitted in the working tree
func (s *Service) ReviewLocalChanges(ctx context.Context, req LocalRequest) (*LocalReviewResult, error) {
	start := s.clock.Now()

	repo, err := git.Open(req.RepoPath)
	if err != nil {
		return nil, err
	}

	var changed []git.ChangedFile
	if req.Uncommitted {
		changed, err = repo.WorkingTreeChanges()
	} else {
		if req.BaseRef == "" {
			req.BaseRef = "main"
		}
		changed, err = repo.ChangedFiles(ctx, req.BaseRef)
	}
	if err != nil {
		return nil, err
	}

	branch, _ := repo.CurrentBranch()
	result := &LocalReviewResult{
		Root:   repo.Root(),
		Branch: branch,
		Files:  []FileSummary{},
	}
	if !req.Uncommitted {
		result.BaseRef = req.BaseRef
	}

	useAI := s.aiEnabled(req.DisableAI)
	var findings []Finding
	lines := 0
	for _, file := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !analysis.IsSupportedFile(file.Path) || s.files.IsExcluded(file.Path) {
			continue
		}
		fa, err := s.analyzeContent(ctx, file.Path, file.Content, nil, useAI)
		if err != nil {
			s.logger.Warn("skipping %s: %v", file.Path, err)
			continue
		}
		summary := summarizeFile(fa)
		result.Files = append(result.Files, summary)
		findings = append(findings, summary.Findings...)
		lines += fa.LinesOfCode
	}

	result.TotalIssues = len(findings)
	result.AverageQuality = averageQuality(result.Files)
	title := fmt.Sprintf("Local review of %s", branch)
	if result.BaseRef != "" {
		title = fmt.Sprintf("Local review of %s against %s", branch, result.BaseRef)
	}
	result.Summary = BuildSummary(title, result.Files)

	if s.store != nil {
		s.persistLocalReview(ctx, repo, result, findings, lines, s.elapsedMS(start))
	}
	return result, nil
}

// persistLocalReview stores the review; failures are logged because the
// review itself already succeeded
func (s *Service) persistLocalReview(ctx context.Context, repo *git.Repository, result *LocalReviewResult, findings []Finding, lines int, durationMS int64) {
	counts := CountFindings(findings)
	record := &storage.CodeReview{
		RepositoryName:     result.Root,
		BranchName:         result.Branch,
		Status:             storage.StatusInProgress,
		TotalIssues:        len(findings),
		CriticalIssues:     counts.High,
		Warnings:           counts.Medium,
		Suggestions:        counts.Low + counts.Other,
		CodeQualityScore:   result.AverageQuality,
		FilesAnalyzed:      len(result.Files),
		LinesOfCode:        lines,
		AnalysisDurationMS: durationMS,
	}
	if owner, name, err := repo.GitHubRepo(); err == nil {
		record.RepositoryName = owner + "/" + name
	}
	if sha, err := repo.HeadSHA(); err == nil {
		record.CommitSHA = sha
	}

	if err := s.store.CreateReview(ctx, record); err != nil {
		s.logger.Warn("failed to store local review: %v", err)
		return
	}
	comments := make([]storage.ReviewComment, 0, len(findings))
	for _, f := range findings {
		comments = append(comments, toStorageComment(f))
	}
	if err := s.store.CompleteReview(ctx, record, comments); err != nil {
		s.logger.Warn("failed to store local review comments: %v", err)
		s.failReview(ctx, record, err)
		return
	}
	result.ReviewUUID = record.UUID
}
