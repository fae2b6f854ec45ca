// Package review runs code reviews: static analysis merged with AI feedback,
// for snippets, files, pull requests and local git changes.
package review

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/cache"
	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/github"
	"github.com/fumiya-kume/cra/pkg/llm"
	"github.com/fumiya-kume/cra/pkg/logger"
	"github.com/fumiya-kume/cra/pkg/storage"
)

// AIReviewer is the LLM side of a review; *llm.Reviewer implements it
type AIReviewer interface {
	ReviewSnippet(ctx context.Context, code, language, extra string) (*llm.SnippetReview, error)
	ReviewFile(ctx context.Context, code, path, language string, extra map[string]any) (*llm.FileReview, error)
	DetectPatterns(ctx context.Context, code, language string, custom []llm.CustomPattern) ([]llm.Pattern, error)
}

var _ AIReviewer = (*llm.Reviewer)(nil)

// Options configures review limits
type Options struct {
	MaxFiles       int
	MaxSuggestions int
	MaxIssues      int
	CacheTTL       time.Duration
	EnableAI       bool
	FileOptions    analysis.FileOptions
}

// DefaultOptions returns the standard limits
func DefaultOptions() Options {
	return Options{
		MaxFiles:       10,
		MaxSuggestions: 15,
		MaxIssues:      20,
		CacheTTL:       time.Hour,
		EnableAI:       true,
		FileOptions:    analysis.DefaultFileOptions(),
	}
}

// OptionsFromConfig reads limits from the review, redis and analysis sections
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg.Review.MaxFiles > 0 {
		opts.MaxFiles = cfg.Review.MaxFiles
	}
	if cfg.Review.MaxSuggestions > 0 {
		opts.MaxSuggestions = cfg.Review.MaxSuggestions
	}
	if cfg.Review.MaxIssues > 0 {
		opts.MaxIssues = cfg.Review.MaxIssues
	}
	if cfg.Redis.TTL > 0 {
		opts.CacheTTL = cfg.Redis.TTL
	}
	opts.EnableAI = cfg.Review.EnableAI
	opts.FileOptions = cfg.Analysis.FileOptions()
	return opts
}

// Dependencies are the optional collaborators of a Service. Nil members
// disable the features that need them.
type Dependencies struct {
	Reviewer AIReviewer
	Cache    cache.Cache
	Store    storage.Store
	GitHub   github.GitHubClient
	Clock    clock.Clock
}

// Service orchestrates reviews
type Service struct {
	analyzer *analysis.Analyzer
	files    *analysis.FileAnalyzer
	reviewer AIReviewer
	cache    cache.Cache
	store    storage.Store
	github   github.GitHubClient
	clock    clock.Clock
	options  Options
	logger   *logger.Logger
}

// NewService creates a review service
func NewService(opts Options, deps Dependencies, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	defaults := DefaultOptions()
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaults.MaxFiles
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = defaults.MaxSuggestions
	}
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = defaults.MaxIssues
	}

	analyzer := analysis.NewAnalyzer()
	return &Service{
		analyzer: analyzer,
		files:    analysis.NewFileAnalyzer(analyzer, opts.FileOptions),
		reviewer: deps.Reviewer,
		cache:    deps.Cache,
		store:    deps.Store,
		github:   deps.GitHub,
		clock:    deps.Clock,
		options:  opts,
		logger:   log.WithPrefix("review"),
	}
}

// Store exposes the persistence layer, which may be nil
func (s *Service) Store() storage.Store {
	return s.store
}

func (s *Service) aiEnabled(disabled bool) bool {
	return s.reviewer != nil && s.options.EnableAI && !disabled
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("cache read failed: %v", err)
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.options.CacheTTL); err != nil {
		s.logger.Warn("cache write failed: %v", err)
	}
}

func aiMode(enabled bool) string {
	if enabled {
		return "ai"
	}
	return "static"
}

// ReviewSnippet analyzes a snippet and merges in the AI review
func (s *Service) ReviewSnippet(ctx context.Context, req SnippetRequest) (*SnippetResponse, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, errors.ValidationError("Code snippet cannot be empty")
	}

	useAI := s.aiEnabled(req.DisableAI)
	key := cache.Key(cache.SnippetPrefix, req.Language, req.Code, req.Context, aiMode(useAI))

	var cached SnippetResponse
	if s.cacheGet(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	s.logger.Info("reviewing snippet (%d characters)", len(req.Code))
	result := s.analyzer.Analyze(analysis.Input{Text: req.Code, DeclaredLanguage: req.Language})

	suggestions := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		suggestions = append(suggestions, IssueSuggestion(issue))
	}

	resp := &SnippetResponse{
		QualityScore:    result.QualityScore,
		ComplexityScore: result.ComplexityScore,
		Language:        result.Language,
		Metrics:         result.Metrics,
		IssuesCount:     len(result.Issues),
		Issues:          result.Issues,
	}

	aiText := ""
	if useAI {
		ai, err := s.reviewer.ReviewSnippet(ctx, req.Code, result.Language, req.Context)
		if err != nil {
			s.logger.Warn("AI review failed, returning static analysis only: %v", err)
			resp.AIError = errors.MessageOf(err)
		} else {
			aiText = ai.Review
			resp.AIMock = ai.Mock
			suggestions = append(suggestions, ai.Suggestions...)
		}
	}

	if len(suggestions) > s.options.MaxSuggestions {
		suggestions = suggestions[:s.options.MaxSuggestions]
	}
	resp.Suggestions = suggestions
	resp.Review = snippetReviewText(result, aiText)

	s.logger.Info("review completed, quality score %d", result.QualityScore)

	// Failed AI calls are not cached so the next request retries them.
	if resp.AIError == "" {
		s.cacheSet(ctx, key, resp)
	}
	return resp, nil
}

// AnalyzeFile reviews a file by path and content
func (s *Service) AnalyzeFile(ctx context.Context, req FileRequest) (*FileAnalysis, error) {
	useAI := s.aiEnabled(req.DisableAI)
	key := cache.Key(cache.FilePrefix, req.Path, req.Code, aiMode(useAI))

	var cached FileAnalysis
	if req.Context == nil && s.cacheGet(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	fa, err := s.analyzeContent(ctx, req.Path, req.Code, req.Context, useAI)
	if err != nil {
		return nil, err
	}
	if req.Context == nil && fa.AIError == "" {
		s.cacheSet(ctx, key, fa)
	}
	return fa, nil
}

func (s *Service) analyzeContent(ctx context.Context, path, content string, extra map[string]any, useAI bool) (*FileAnalysis, error) {
	report, err := s.files.AnalyzeFile(path, content)
	if err != nil {
		return nil, err
	}

	fa := &FileAnalysis{
		FilePath:    path,
		Language:    report.Language,
		LinesOfCode: countLines(content),
		Static:      report.Result,
	}
	if !useAI {
		return fa, nil
	}

	review, err := s.reviewer.ReviewFile(ctx, content, path, report.Language, extra)
	if err != nil {
		s.logger.Warn("AI file review of %s failed: %v", path, err)
		fa.AIError = errors.MessageOf(err)
		return fa, nil
	}
	fa.LLMReview = review

	patterns, err := s.reviewer.DetectPatterns(ctx, content, report.Language, nil)
	if err != nil {
		s.logger.Warn("pattern detection on %s failed: %v", path, err)
		fa.AIError = errors.MessageOf(err)
		return fa, nil
	}
	fa.Patterns = patterns
	return fa, nil
}

// countLines matches Python's str.splitlines for "\n" separated text
func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}

func summarizeFile(fa *FileAnalysis) FileSummary {
	return FileSummary{
		Path:         fa.FilePath,
		Language:     fa.Language,
		LinesOfCode:  fa.LinesOfCode,
		QualityScore: fa.Static.QualityScore,
		Findings:     fa.Issues(),
	}
}

// GetReview loads a stored review by numeric id or UUID
func (s *Service) GetReview(ctx context.Context, id string) (*storage.CodeReview, error) {
	if s.store == nil {
		return nil, errors.ConfigurationError("review storage is not configured")
	}
	return s.store.GetReview(ctx, id)
}

func (s *Service) elapsedMS(start time.Time) int64 {
	return s.clock.Since(start).Milliseconds()
}

func fileContext(pr *github.PullRequest) map[string]any {
	return map[string]any{
		"pr": map[string]any{
			"number": pr.Number,
			"title":  pr.Title,
			"body":   pr.Body,
			"branch": pr.HeadRef,
			"base":   pr.BaseRef,
		},
	}
}

func averageQuality(files []FileSummary) float64 {
	if len(files) == 0 {
		return 0
	}
	total := 0
	for _, f := range files {
		total += f.QualityScore
	}
	return float64(total) / float64(len(files))
}

// truncate cuts s to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
