package review

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fumiya-kume/cra/pkg/analysis"
)

var titleCaser = cases.Title(language.Und)

// NormalizeSeverity folds model severities onto high, medium and low
func NormalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "error", "high":
		return string(analysis.SeverityHigh)
	case "warning", "medium":
		return string(analysis.SeverityMedium)
	case "info", "low", "style":
		return string(analysis.SeverityLow)
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

// Marker is the emoji shown next to an issue of the given severity
func Marker(severity string) string {
	switch NormalizeSeverity(severity) {
	case string(analysis.SeverityHigh):
		return "🔴"
	case string(analysis.SeverityMedium):
		return "🟡"
	case string(analysis.SeverityLow):
		return "🟢"
	default:
		return "🔵"
	}
}

// ScoreEmoji grades a quality score
func ScoreEmoji(score int) string {
	switch {
	case score >= 80:
		return "🌟"
	case score >= 60:
		return "⭐"
	default:
		return "💫"
	}
}

// IssueSuggestion renders a static issue as a one-line suggestion
func IssueSuggestion(issue analysis.Issue) string {
	s := fmt.Sprintf("%s %s: %s", Marker(string(issue.Severity)), issue.Title, issue.Message)
	if issue.HasLine() {
		s += fmt.Sprintf(" (Line %d)", issue.Line)
	}
	return s
}

// snippetReviewText builds the markdown review body
func snippetReviewText(result analysis.Result, aiReview string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s **Code Quality Score: %d/100**\n\n", ScoreEmoji(result.QualityScore), result.QualityScore)
	fmt.Fprintf(&b, "**Language:** %s\n\n", titleCaser.String(result.Language))

	m := result.Metrics
	b.WriteString("**Metrics:**\n")
	fmt.Fprintf(&b, "- Total lines: %d\n", m.TotalLines)
	fmt.Fprintf(&b, "- Code lines: %d\n", m.CodeLines)
	fmt.Fprintf(&b, "- Comment lines: %d\n", m.CommentLines)
	fmt.Fprintf(&b, "- Complexity: %d/10\n\n", result.ComplexityScore)

	if aiReview != "" {
		fmt.Fprintf(&b, "**AI Analysis:**\n%s\n\n", aiReview)
	}

	if len(result.Issues) > 0 {
		counts := result.CountBySeverity()
		fmt.Fprintf(&b, "**Issues Found:** %d total\n", len(result.Issues))
		if n := counts[analysis.SeverityHigh]; n > 0 {
			fmt.Fprintf(&b, "- 🔴 High: %d\n", n)
		}
		if n := counts[analysis.SeverityMedium]; n > 0 {
			fmt.Fprintf(&b, "- 🟡 Medium: %d\n", n)
		}
		if n := counts[analysis.SeverityLow]; n > 0 {
			fmt.Fprintf(&b, "- 🟢 Low: %d\n", n)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
