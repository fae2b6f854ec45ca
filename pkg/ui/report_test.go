package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/review"
)

func plainRenderer() *Renderer {
	return NewRenderer(NewPlainTheme())
}

func TestRenderResult(t *testing.T) {
	result := analysis.Analyze("x = eval(input())\n", "python")

	out := plainRenderer().RenderResult("app.py", result)

	assert.Contains(t, out, "Code Review: app.py")
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "85/100")
	assert.Contains(t, out, "Issues (1)")
	assert.Contains(t, out, "1 high, 0 medium, 0 low")
	assert.Contains(t, out, "🔴 Eval Usage Potential eval usage detected (line 1)")
}

func TestRenderResultWithoutIssues(t *testing.T) {
	out := plainRenderer().RenderResult("", analysis.Analyze("x = 1\n", "python"))

	assert.Contains(t, out, "Code Review\n")
	assert.Contains(t, out, "No issues found")
}

func TestRenderSnippetReview(t *testing.T) {
	resp := &review.SnippetResponse{
		Language:     "python",
		QualityScore: 85,
		Suggestions:  []string{"Avoid eval"},
		Issues: []analysis.Issue{
			{Kind: analysis.KindSecurity, Severity: analysis.SeverityHigh, Title: "Eval Usage", Message: "Potential eval usage detected", Line: 1},
		},
		AIError: "timeout",
		Cached:  true,
	}

	out := plainRenderer().RenderSnippetReview(resp)

	assert.Contains(t, out, "Suggestions")
	assert.Contains(t, out, "• Avoid eval")
	assert.Contains(t, out, "AI review unavailable: timeout")
	assert.Contains(t, out, "(cached)")
}

func TestRenderDirectorySortsWorstFirst(t *testing.T) {
	report := &analysis.DirectoryReport{
		Root:           "/src",
		TotalFiles:     2,
		TotalLines:     30,
		TotalIssues:    1,
		AverageQuality: 77.5,
		Files: []analysis.FileReport{
			{Path: "good.go", Language: "go", Result: analysis.Result{QualityScore: 100}},
			{Path: "bad.py", Language: "python", Result: analysis.Result{QualityScore: 55, Issues: []analysis.Issue{
				{Severity: analysis.SeverityHigh, Title: "Eval Usage", Message: "Potential eval usage detected", Line: 4},
			}}},
		},
		Errors: []analysis.FileError{{Path: "big.js", Error: "file too large"}},
	}

	out := plainRenderer().RenderDirectory(report)

	assert.Contains(t, out, "Scan: /src")
	assert.Contains(t, out, "78/100")
	assert.Less(t, strings.Index(out, "bad.py"), strings.Index(out, "good.go"))
	assert.Contains(t, out, "big.js: file too large")
	assert.Equal(t, "good.go", report.Files[0].Path)
}

func TestRenderFiles(t *testing.T) {
	files := []review.FileSummary{
		{Path: "app.py", QualityScore: 85, Findings: []review.Finding{
			{File: "app.py", Line: 2, Severity: "high", Title: "Eval Usage", Description: "Potential eval usage detected", Suggestion: "use ast.literal_eval"},
		}},
		{Path: "lib.py", QualityScore: 100},
	}

	out := plainRenderer().RenderFiles("PR #7", files, 92.5)

	assert.Contains(t, out, "PR #7")
	assert.Contains(t, out, "Issues          1")
	assert.Contains(t, out, "93/100")
	assert.Contains(t, out, "→ use ast.literal_eval")
	assert.Contains(t, out, "lib.py  100/100\n  No issues found")
}

func TestRenderMarkdown(t *testing.T) {
	md := "# Title\n\nSome **bold** text"

	assert.Equal(t, md, NewRenderer(NewDarkTheme()).RenderMarkdown(md))
	assert.Equal(t, md, NewRenderer(NewPlainTheme(), WithMarkdown(true)).RenderMarkdown(md))

	out := NewRenderer(NewDarkTheme(), WithMarkdown(true), WithWidth(60)).RenderMarkdown(md)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**bold**")
}

