package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/review"
)

const defaultWordWrap = 80

var titleCaser = cases.Title(language.Und)

// Renderer formats review results for the terminal
type Renderer struct {
	theme    Theme
	markdown bool
	width    int
}

// RendererOption customizes a Renderer
type RendererOption func(*Renderer)

// WithMarkdown renders AI review text through glamour
func WithMarkdown(enabled bool) RendererOption {
	return func(r *Renderer) { r.markdown = enabled }
}

// WithWidth sets the wrap width for markdown output
func WithWidth(width int) RendererOption {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// NewRenderer creates a renderer with the given theme
func NewRenderer(theme Theme, opts ...RendererOption) *Renderer {
	r := &Renderer{theme: theme, width: defaultWordWrap}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderMarkdown renders markdown with glamour. The raw text is returned
// when markdown is disabled or glamour fails.
func (r *Renderer) RenderMarkdown(md string) string {
	if !r.markdown || r.theme.Name == ThemePlain {
		return md
	}

	style := glamour.WithAutoStyle()
	switch r.theme.Name {
	case ThemeDark, ThemeLight:
		style = glamour.WithStandardStyle(r.theme.Name)
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(r.width))
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (r *Renderer) score(score int) string {
	return r.theme.ScoreStyle(score).Render(fmt.Sprintf("%d/100", score))
}

func (r *Renderer) row(label, value string) string {
	return r.theme.Styles.Label.Render(label) + value + "\n"
}

func (r *Renderer) issueLine(severity, title, message string, line int) string {
	s := r.theme.SeverityStyle(severity)
	text := fmt.Sprintf("%s %s %s", review.Marker(severity), s.Render(title), message)
	if line > 0 {
		text += r.theme.Styles.Muted.Render(fmt.Sprintf(" (line %d)", line))
	}
	return text
}

func (r *Renderer) severityCounts(counts map[analysis.Severity]int) string {
	parts := make([]string, 0, 3)
	for _, sev := range []analysis.Severity{analysis.SeverityHigh, analysis.SeverityMedium, analysis.SeverityLow} {
		label := fmt.Sprintf("%d %s", counts[sev], sev)
		parts = append(parts, r.theme.SeverityStyle(string(sev)).Render(label))
	}
	return strings.Join(parts, ", ")
}

// RenderResult renders one static analysis result. name may be empty.
func (r *Renderer) RenderResult(name string, result analysis.Result) string {
	var b strings.Builder

	title := "Code Review"
	if name != "" {
		title += ": " + name
	}
	b.WriteString(r.theme.Styles.Title.Render(review.ScoreEmoji(result.QualityScore)+" "+title) + "\n\n")

	b.WriteString(r.row("Language", titleCaser.String(result.Language)))
	b.WriteString(r.row("Quality", r.score(result.QualityScore)))
	b.WriteString(r.row("Complexity", fmt.Sprintf("%d/10", result.ComplexityScore)))

	m := result.Metrics
	b.WriteString(r.row("Lines", fmt.Sprintf("%d total, %d code, %d comment, %d blank",
		m.TotalLines, m.CodeLines, m.CommentLines, m.BlankLines)))
	b.WriteString(r.row("Longest line", fmt.Sprintf("%d (avg %d)", m.MaxLineLength, m.AvgLineLength)))

	b.WriteString(r.theme.Styles.Section.Render(fmt.Sprintf("Issues (%d)", len(result.Issues))) + "\n")
	if len(result.Issues) == 0 {
		b.WriteString(r.theme.Styles.Muted.Render("No issues found") + "\n")
		return b.String()
	}
	b.WriteString(r.severityCounts(result.CountBySeverity()) + "\n")
	for _, issue := range result.Issues {
		b.WriteString("  " + r.issueLine(string(issue.Severity), issue.Title, issue.Message, issue.Line) + "\n")
	}
	return b.String()
}

// RenderSnippetReview renders a snippet review including AI output
func (r *Renderer) RenderSnippetReview(resp *review.SnippetResponse) string {
	result := analysis.Result{
		Language:        resp.Language,
		Metrics:         resp.Metrics,
		Issues:          resp.Issues,
		ComplexityScore: resp.ComplexityScore,
		QualityScore:    resp.QualityScore,
	}

	var b strings.Builder
	b.WriteString(r.RenderResult("", result))

	if len(resp.Suggestions) > 0 {
		b.WriteString(r.theme.Styles.Section.Render("Suggestions") + "\n")
		for _, s := range resp.Suggestions {
			b.WriteString("  • " + s + "\n")
		}
	}

	switch {
	case resp.AIError != "":
		b.WriteString("\n" + r.theme.Styles.Poor.Render("AI review unavailable: ") + resp.AIError + "\n")
	case resp.AIMock:
		b.WriteString("\n" + r.theme.Styles.Muted.Render("AI review ran in mock mode") + "\n")
	}
	if resp.Cached {
		b.WriteString(r.theme.Styles.Muted.Render("(cached)") + "\n")
	}
	return b.String()
}

// RenderDirectory renders a directory scan, worst files first
func (r *Renderer) RenderDirectory(report *analysis.DirectoryReport) string {
	var b strings.Builder

	b.WriteString(r.theme.Styles.Title.Render("Scan: "+report.Root) + "\n\n")
	b.WriteString(r.row("Files", fmt.Sprintf("%d", report.TotalFiles)))
	b.WriteString(r.row("Lines", fmt.Sprintf("%d", report.TotalLines)))
	b.WriteString(r.row("Issues", fmt.Sprintf("%d", report.TotalIssues)))
	b.WriteString(r.row("Average", r.score(int(report.AverageQuality+0.5))))

	files := make([]analysis.FileReport, len(report.Files))
	copy(files, report.Files)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Result.QualityScore < files[j].Result.QualityScore
	})

	if len(files) > 0 {
		b.WriteString(r.theme.Styles.Section.Render("Files") + "\n")
	}
	for _, f := range files {
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			r.score(f.Result.QualityScore),
			f.Path,
			r.theme.Styles.Muted.Render(fmt.Sprintf("%s, %d issues", f.Language, len(f.Result.Issues))))
		for _, issue := range f.Result.Issues {
			b.WriteString("      " + r.issueLine(string(issue.Severity), issue.Title, issue.Message, issue.Line) + "\n")
		}
	}

	if len(report.Errors) > 0 {
		b.WriteString(r.theme.Styles.Section.Render("Errors") + "\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "  %s: %s\n", e.Path, r.theme.Styles.Poor.Render(e.Error))
		}
	}
	return b.String()
}

// RenderFiles renders a multi-file review such as a pull request or local diff
func (r *Renderer) RenderFiles(title string, files []review.FileSummary, average float64) string {
	var b strings.Builder

	b.WriteString(r.theme.Styles.Title.Render(title) + "\n\n")
	total := 0
	for _, f := range files {
		total += len(f.Findings)
	}
	b.WriteString(r.row("Files", fmt.Sprintf("%d", len(files))))
	b.WriteString(r.row("Issues", fmt.Sprintf("%d", total)))
	if len(files) > 0 {
		b.WriteString(r.row("Average", r.score(int(average+0.5))))
	}

	for _, f := range files {
		header := fmt.Sprintf("%s  %s", f.Path, r.score(f.QualityScore))
		b.WriteString(r.theme.Styles.Section.Render(header) + "\n")
		if len(f.Findings) == 0 {
			b.WriteString("  " + r.theme.Styles.Muted.Render("No issues found") + "\n")
			continue
		}
		for _, finding := range f.Findings {
			b.WriteString("  " + r.issueLine(finding.Severity, finding.Title, finding.Description, finding.Line) + "\n")
			if finding.Suggestion != "" {
				b.WriteString("    " + r.theme.Styles.Code.Render("→ "+finding.Suggestion) + "\n")
			}
		}
	}
	return b.String()
}

// Panel wraps content in the theme's bordered panel
func (r *Renderer) Panel(content string) string {
	return r.theme.Styles.Panel.Render(strings.TrimRight(content, "\n"))
}

