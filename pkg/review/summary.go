package review

import (
	"fmt"
	"strings"

	"github.com/fumiya-kume/cra/pkg/analysis"
)

// SeverityCounts tallies findings by normalized severity
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Other  int `json:"other"`
}

// CountFindings tallies findings
func CountFindings(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch NormalizeSeverity(f.Severity) {
		case string(analysis.SeverityHigh):
			c.High++
		case string(analysis.SeverityMedium):
			c.Medium++
		case string(analysis.SeverityLow):
			c.Low++
		default:
			c.Other++
		}
	}
	return c
}

// String renders "🔴 1 · 🟡 2 · 🟢 0"
func (c SeverityCounts) String() string {
	s := fmt.Sprintf("🔴 %d · 🟡 %d · 🟢 %d", c.High, c.Medium, c.Low)
	if c.Other > 0 {
		s += fmt.Sprintf(" · 🔵 %d", c.Other)
	}
	return s
}

// BuildSummary renders a markdown report for a multi-file review
func BuildSummary(title string, files []FileSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)

	if len(files) == 0 {
		b.WriteString("No supported files changed.\n")
		return b.String()
	}

	var all []Finding
	total := 0
	for _, f := range files {
		all = append(all, f.Findings...)
		total += f.QualityScore
	}
	avg := float64(total) / float64(len(files))

	fmt.Fprintf(&b, "**Files analyzed:** %d | **Issues:** %d (%s) | **Average quality:** %.0f/100\n",
		len(files), len(all), CountFindings(all), avg)

	for _, f := range files {
		fmt.Fprintf(&b, "\n### `%s` %s %d/100\n", f.Path, ScoreEmoji(f.QualityScore), f.QualityScore)
		if len(f.Findings) == 0 {
			b.WriteString("No issues found.\n")
			continue
		}
		for _, finding := range f.Findings {
			b.WriteString(findingLine(finding))
		}
	}
	return b.String()
}

func findingLine(f Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s **%s**", Marker(f.Severity), f.Title)
	if f.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", f.Line)
	}
	if f.Description != "" {
		fmt.Fprintf(&b, ": %s", f.Description)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(&b, " _Suggestion: %s_", f.Suggestion)
	}
	b.WriteString("\n")
	return b.String()
}

// commentBody is the text of a single inline pull request comment
func commentBody(f Finding) string {
	body := fmt.Sprintf("%s **%s** (%s)\n\n%s", Marker(f.Severity), f.Title, f.Category, f.Description)
	if f.Suggestion != "" {
		body += "\n\n**Suggestion:** " + f.Suggestion
	}
	return body
}
