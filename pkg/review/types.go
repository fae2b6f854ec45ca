package review

import (
	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/llm"
)

// SnippetRequest asks for a review of a pasted code snippet
type SnippetRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Context  string `json:"context,omitempty"`
	// DisableAI limits the review to static analysis
	DisableAI bool `json:"disable_ai,omitempty"`
}

// SnippetResponse combines static analysis with the AI review
type SnippetResponse struct {
	Review          string           `json:"review"`
	Suggestions     []string         `json:"suggestions"`
	QualityScore    int              `json:"quality_score"`
	ComplexityScore int              `json:"complexity_score"`
	Language        string           `json:"language"`
	Metrics         analysis.Metrics `json:"metrics"`
	IssuesCount     int              `json:"issues_count"`
	Issues          []analysis.Issue `json:"issues"`
	AIMock          bool             `json:"ai_mock,omitempty"`
	AIError         string           `json:"ai_error,omitempty"`
	Cached          bool             `json:"cached,omitempty"`
}

// FileRequest asks for a review of a whole file
type FileRequest struct {
	Path      string         `json:"file_path"`
	Code      string         `json:"code"`
	Context   map[string]any `json:"context,omitempty"`
	DisableAI bool           `json:"disable_ai,omitempty"`
}

// FileAnalysis is the static and AI review of one file
type FileAnalysis struct {
	FilePath    string          `json:"file_path"`
	Language    string          `json:"language"`
	LinesOfCode int             `json:"lines_of_code"`
	Static      analysis.Result `json:"static_analysis"`
	LLMReview   *llm.FileReview `json:"llm_review,omitempty"`
	Patterns    []llm.Pattern   `json:"patterns,omitempty"`
	AIError     string          `json:"ai_error,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
}

// Issues merges static findings and AI findings for the file
func (f *FileAnalysis) Issues() []Finding {
	findings := make([]Finding, 0, len(f.Static.Issues))
	for _, issue := range f.Static.Issues {
		findings = append(findings, Finding{
			File:        f.FilePath,
			Line:        issue.Line,
			Severity:    string(issue.Severity),
			Category:    string(issue.Kind),
			Title:       issue.Title,
			Description: issue.Message,
			Source:      SourceStatic,
			Confidence:  1,
		})
	}
	if f.LLMReview != nil {
		for _, issue := range f.LLMReview.Issues {
			findings = append(findings, Finding{
				File:        f.FilePath,
				Line:        issue.Line,
				Severity:    NormalizeSeverity(issue.Severity),
				Category:    issue.Category,
				Title:       issue.Title,
				Description: issue.Description,
				Suggestion:  issue.Suggestion,
				Source:      SourceAI,
				Confidence:  issue.Confidence,
			})
		}
	}
	return findings
}

// Finding sources
const (
	SourceStatic = "static"
	SourceAI     = "ai"
)

// Finding is an issue located in a file, from either analysis source
type Finding struct {
	File        string  `json:"file"`
	Line        int     `json:"line,omitempty"`
	Severity    string  `json:"severity"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Suggestion  string  `json:"suggestion,omitempty"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
}

// FileSummary is one file's contribution to a multi-file review
type FileSummary struct {
	Path         string    `json:"path"`
	Language     string    `json:"language"`
	LinesOfCode  int       `json:"lines_of_code"`
	QualityScore int       `json:"quality_score"`
	Findings     []Finding `json:"findings"`
}

// PRRequest asks for a pull request review
type PRRequest struct {
	Repository   string `json:"repository"`
	PRNumber     int    `json:"pr_number"`
	PostComments bool   `json:"auto_comment"`
	DisableAI    bool   `json:"disable_ai,omitempty"`
}

// PRReviewResult summarizes a pull request review
type PRReviewResult struct {
	ReviewID       uint          `json:"review_id,omitempty"`
	ReviewUUID     string        `json:"review_uuid,omitempty"`
	Repository     string        `json:"repository"`
	PRNumber       int           `json:"pr_number"`
	CommitSHA      string        `json:"commit_sha"`
	FilesAnalyzed  int           `json:"files_analyzed"`
	FilesSkipped   []string      `json:"files_skipped,omitempty"`
	TotalIssues    int           `json:"total_issues"`
	QualityScore   float64       `json:"quality_score"`
	Issues         []Finding     `json:"issues"`
	Files          []FileSummary `json:"files"`
	CommentsPosted int           `json:"comments_posted"`
	Summary        string        `json:"summary"`
}

// LocalRequest asks for a review of local git changes
type LocalRequest struct {
	RepoPath string
	// BaseRef is compared against HEAD; ignored when Uncommitted is set
	BaseRef     string
	Uncommitted bool
	DisableAI   bool
}

// LocalReviewResult summarizes a local review
type LocalReviewResult struct {
	ReviewUUID     string        `json:"review_uuid,omitempty"`
	Root           string        `json:"root"`
	BaseRef        string        `json:"base_ref,omitempty"`
	Branch         string        `json:"branch"`
	Files          []FileSummary `json:"files"`
	TotalIssues    int           `json:"total_issues"`
	AverageQuality float64       `json:"average_quality"`
	Summary        string        `json:"summary"`
}
