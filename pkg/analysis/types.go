// Package analysis implements the static analysis engine: language detection,
// line metrics, rule-based issue detection, complexity estimation and quality scoring.
//
// Every exported operation is a pure function of its input. Nothing in this package
// holds mutable state, so an Analyzer can be shared freely between goroutines.
package analysis

// Unknown is reported when no language pattern matches the input.
const Unknown = "unknown"

// IssueKind categorizes an issue
type IssueKind string

const (
	KindSecurity     IssueKind = "security"
	KindStyle        IssueKind = "style"
	KindMaintenance  IssueKind = "maintenance"
	KindBestPractice IssueKind = "best_practice"
	KindBug          IssueKind = "bug"
)

// Severity of an issue
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Penalty returns the number of quality points an issue of this severity costs.
func (s Severity) Penalty() int {
	switch s {
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 8
	case SeverityLow:
		return 3
	default:
		return 5
	}
}

// Input is a single unit of source text handed to the engine.
type Input struct {
	Text string
	// DeclaredLanguage overrides detection when non-empty. It is used verbatim.
	DeclaredLanguage string
}

// Metrics holds line statistics derived from the input text
type Metrics struct {
	TotalLines    int `json:"total_lines"`
	CodeLines     int `json:"code_lines"`
	CommentLines  int `json:"comment_lines"`
	BlankLines    int `json:"blank_lines"`
	MaxLineLength int `json:"max_line_length"`
	AvgLineLength int `json:"avg_line_length"`
}

// Issue is a single static analysis finding
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	// Line is 1-based; zero means the issue is not tied to a line.
	Line int `json:"line,omitempty"`
}

// HasLine reports whether the issue refers to a specific line
func (i Issue) HasLine() bool {
	return i.Line > 0
}

// Result is the output of one Analyze call
type Result struct {
	Language        string  `json:"language"`
	Metrics         Metrics `json:"metrics"`
	Issues          []Issue `json:"issues"`
	ComplexityScore int     `json:"complexity_score"`
	QualityScore    int     `json:"quality_score"`
}

// CountBySeverity tallies the result's issues per severity.
func (r Result) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}
