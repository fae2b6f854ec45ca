package review

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/github"
	"github.com/fumiya-kume/cra/pkg/storage"
)

const summaryTitle = "🤖 Code Review Summary"

// ReviewPullRequest analyzes the first changed files of a pull request, stores
// the review with one comment per finding and optionally posts them to GitHub.
func (s *Service) ReviewPullRequest(ctx context.Context, req PRRequest) (*PRReviewResult, error) {
	if s.github == nil {
		return nil, errors.ConfigurationError("GitHub access is not configured")
	}
	repo, err := github.ParseRepo(req.Repository)
	if err != nil {
		return nil, err
	}
	if req.PRNumber <= 0 {
		return nil, errors.ValidationError("pr_number must be positive")
	}

	start := s.clock.Now()
	s.logger.Info("reviewing %s#%d", repo, req.PRNumber)

	pr, err := s.github.GetPullRequest(ctx, repo.Owner, repo.Name, req.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}

	record := &storage.CodeReview{
		RepositoryName: repo.String(),
		PRNumber:       pr.Number,
		CommitSHA:      pr.HeadSHA,
		BranchName:     pr.HeadRef,
		Status:         storage.StatusPending,
	}
	var repoRecord *storage.Repository
	if s.store != nil {
		if r, err := s.store.GetRepositoryByFullName(ctx, repo.String()); err == nil {
			repoRecord = r
			record.RepositoryID = &r.ID
		}
		if err := s.store.CreateReview(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create review record: %w", err)
		}
		record.Status = storage.StatusInProgress
		if err := s.store.UpdateReview(ctx, record); err != nil {
			s.failReview(ctx, record, err)
			return nil, fmt.Errorf("failed to start review: %w", err)
		}
	}

	result, err := s.runPullRequestReview(ctx, repo, pr, req)
	if err != nil {
		s.failReview(ctx, record, err)
		return nil, err
	}

	counts := CountFindings(result.allFindings)
	record.TotalIssues = len(result.allFindings)
	record.CriticalIssues = counts.High
	record.Warnings = counts.Medium
	record.Suggestions = counts.Low + counts.Other
	record.CodeQualityScore = result.QualityScore
	record.FilesAnalyzed = result.FilesAnalyzed
	record.LinesOfCode = result.linesOfCode
	record.AnalysisDurationMS = s.elapsedMS(start)

	if s.store != nil {
		if err := s.store.CompleteReview(ctx, record, result.comments); err != nil {
			s.failReview(ctx, record, err)
			return nil, fmt.Errorf("failed to store review: %w", err)
		}
		if repoRecord != nil {
			if err := s.store.RecordRepositoryReview(ctx, repoRecord.ID, record.TotalIssues); err != nil {
				s.logger.Warn("failed to update repository stats: %v", err)
			}
		}
		result.ReviewID = record.ID
		result.ReviewUUID = record.UUID
	}

	s.logger.Info("reviewed %s#%d: %d files, %d issues in %dms",
		repo, pr.Number, result.FilesAnalyzed, result.TotalIssues, record.AnalysisDurationMS)
	return &result.PRReviewResult, nil
}

type prRun struct {
	PRReviewResult
	allFindings []Finding
	comments    []storage.ReviewComment
	linesOfCode int
}

func (s *Service) runPullRequestReview(ctx context.Context, repo github.RepoRef, pr *github.PullRequest, req PRRequest) (*prRun, error) {
	files, err := s.github.ListPullRequestFiles(ctx, repo.Owner, repo.Name, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull request files: %w", err)
	}
	if len(files) > s.options.MaxFiles {
		s.logger.Info("%s#%d changes %d files, reviewing the first %d", repo, pr.Number, len(files), s.options.MaxFiles)
		files = files[:s.options.MaxFiles]
	}

	run := &prRun{PRReviewResult: PRReviewResult{
		Repository: repo.String(),
		PRNumber:   pr.Number,
		CommitSHA:  pr.HeadSHA,
		Files:      []FileSummary{},
	}}
	useAI := s.aiEnabled(req.DisableAI)
	extra := fileContext(pr)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.IsRemoved() || !analysis.IsSupportedFile(file.Filename) {
			continue
		}

		content, err := s.github.GetFileContent(ctx, repo.Owner, repo.Name, file.Filename, pr.HeadSHA)
		if err != nil {
			s.logger.Warn("skipping %s: %v", file.Filename, err)
			run.FilesSkipped = append(run.FilesSkipped, file.Filename)
			continue
		}

		fa, err := s.analyzeContent(ctx, file.Filename, content, extra, useAI)
		if err != nil {
			s.logger.Warn("skipping %s: %v", file.Filename, err)
			run.FilesSkipped = append(run.FilesSkipped, file.Filename)
			continue
		}

		summary := summarizeFile(fa)
		run.Files = append(run.Files, summary)
		run.FilesAnalyzed++
		run.linesOfCode += fa.LinesOfCode

		var commentable map[int]bool
		if req.PostComments {
			commentable = CommentableLines(file.Patch)
		}
		for _, finding := range summary.Findings {
			comment := toStorageComment(finding)
			if req.PostComments && finding.Line > 0 && commentable[finding.Line] {
				id, err := s.github.CreateReviewComment(ctx, repo.Owner, repo.Name, pr.Number, github.ReviewComment{
					CommitSHA: pr.HeadSHA,
					Path:      finding.File,
					Line:      finding.Line,
					Body:      commentBody(finding),
				})
				if err != nil {
					s.logger.Warn("failed to post comment on %s:%d: %v", finding.File, finding.Line, err)
				} else {
					comment.ExternalCommentID = strconv.FormatInt(id, 10)
					run.CommentsPosted++
				}
			}
			run.comments = append(run.comments, comment)
			run.allFindings = append(run.allFindings, finding)
		}
	}

	run.TotalIssues = len(run.allFindings)
	run.QualityScore = averageQuality(run.Files)
	run.Issues = run.allFindings
	if len(run.Issues) > s.options.MaxIssues {
		run.Issues = run.Issues[:s.options.MaxIssues]
	}
	if run.Issues == nil {
		run.Issues = []Finding{}
	}
	run.Summary = BuildSummary(summaryTitle, run.Files)

	if req.PostComments {
		if _, err := s.github.CreateIssueComment(ctx, repo.Owner, repo.Name, pr.Number, run.Summary); err != nil {
			s.logger.Warn("failed to post summary comment: %v", err)
		}
	}
	return run, nil
}

// failReview records the failure even when ctx has been canceled
func (s *Service) failReview(ctx context.Context, record *storage.CodeReview, cause error) {
	if s.store == nil || record.ID == 0 {
		return
	}
	record.Status = storage.StatusFailed
	record.ErrorMessage = truncate(errors.MessageOf(cause), 2000)
	if err := s.store.UpdateReview(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Error("failed to mark review %s as failed: %v", record.UUID, err)
	}
}

func toStorageComment(f Finding) storage.ReviewComment {
	c := storage.ReviewComment{
		FilePath:        f.File,
		Severity:        NormalizeSeverity(f.Severity),
		Category:        f.Category,
		Title:           f.Title,
		Description:     f.Description,
		Suggestion:      f.Suggestion,
		ConfidenceScore: f.Confidence,
	}
	if f.Line > 0 {
		line := f.Line
		c.LineNumber = &line
	}
	if c.Category == "" {
		c.Category = "general"
	}
	if c.Description == "" {
		c.Description = f.Title
	}
	return c
}
