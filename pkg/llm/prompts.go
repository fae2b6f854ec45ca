package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

// Task names a prompt template
type Task string

const (
	TaskSnippetReview    Task = "snippet_review"
	TaskFileReview       Task = "file_review"
	TaskPatternDetection Task = "pattern_detection"
	TaskMigration        Task = "migration"
)

const systemPrompt = "You are an expert code reviewer."

const fence = "```"

// PromptBuilder renders the review prompts
type PromptBuilder struct {
	templates map[Task]*template.Template
}

// NewPromptBuilder parses every template up front
func NewPromptBuilder() (*PromptBuilder, error) {
	pb := &PromptBuilder{templates: make(map[Task]*template.Template)}

	sources := map[Task]string{
		TaskSnippetReview:    snippetReviewTemplate,
		TaskFileReview:       fileReviewTemplate,
		TaskPatternDetection: patternDetectionTemplate,
		TaskMigration:        migrationTemplate,
	}
	for task, src := range sources {
		t, err := template.New(string(task)).Funcs(template.FuncMap{"toJSON": toJSON}).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", task, err)
		}
		pb.templates[task] = t
	}
	return pb, nil
}

// Build renders the template for task with data
func (pb *PromptBuilder) Build(task Task, data any) (string, error) {
	t, ok := pb.templates[task]
	if !ok {
		return "", fmt.Errorf("unknown task: %s", task)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// SnippetPromptInput feeds TaskSnippetReview
type SnippetPromptInput struct {
	Code     string
	Language string
	Context  string
}

// FilePromptInput feeds TaskFileReview
type FilePromptInput struct {
	Code     string
	Path     string
	Language string
	Context  map[string]any
}

// PatternPromptInput feeds TaskPatternDetection
type PatternPromptInput struct {
	Code           string
	Language       string
	CustomPatterns []CustomPattern
}

// MigrationPromptInput feeds TaskMigration
type MigrationPromptInput struct {
	Code     string
	Language string
	Source   string
	Target   string
}

var snippetReviewTemplate = `You are an expert code reviewer. Analyze the following code and provide:

1. A comprehensive code review covering:
   - Code quality and readability
   - Potential bugs or issues
   - Security vulnerabilities
   - Performance considerations
   - Best practices

2. Specific, actionable suggestions for improvement

Code to review:
` + fence + `{{if .Language}}{{.Language}}{{else}}text{{end}}
{{.Code}}
` + fence + `
{{if .Context}}
Additional context: {{.Context}}
{{end}}
Please provide your analysis in a structured format:
- Start with an overall assessment
- List specific issues found
- Provide concrete suggestions for improvement
`

var fileReviewTemplate = `You are an expert code reviewer. Analyze the following {{.Language}} code and provide a detailed review.

File: {{.Path}}

Code:
` + fence + `{{.Language}}
{{.Code}}
` + fence + `
{{if .Context}}
Context: {{toJSON .Context}}
{{end}}
Please provide a comprehensive review covering:
1. Security vulnerabilities (OWASP guidelines)
2. Performance issues
3. Code quality and maintainability
4. Best practices violations
5. Potential bugs
6. Suggestions for improvement

Return your response as a JSON object with the following structure:
{
    "overall_score": <0-100>,
    "security_score": <0-100>,
    "performance_score": <0-100>,
    "quality_score": <0-100>,
    "issues": [
        {
            "line": <line_number>,
            "severity": "critical|error|warning|info",
            "category": "security|performance|quality|bugs|style",
            "title": "Short title",
            "description": "Detailed description",
            "suggestion": "How to fix it",
            "confidence": <0-1>
        }
    ],
    "summary": "Overall summary of the review"
}
`

var patternDetectionTemplate = `You are an expert at detecting code patterns and anti-patterns. Analyze the following {{.Language}} code.

Code:
` + fence + `{{.Language}}
{{.Code}}
` + fence + `
{{if .CustomPatterns}}
Also check for these custom patterns:
{{toJSON .CustomPatterns}}
{{end}}
Identify:
1. Design patterns used
2. Anti-patterns
3. Code smells
4. Architectural patterns
5. Common mistakes

Return as JSON:
{
    "patterns": [
        {
            "name": "Pattern name",
            "type": "design_pattern|anti_pattern|code_smell",
            "line": <line_number>,
            "confidence": <0-1>,
            "description": "What was found",
            "impact": "critical|high|medium|low",
            "recommendation": "What to do about it"
        }
    ]
}
`

var migrationTemplate = `You are an expert in code migration and refactoring. Help migrate the following code.

Language: {{.Language}}
Source: {{.Source}}
Target: {{.Target}}

Code:
` + fence + `{{.Language}}
{{.Code}}
` + fence + `

Please provide:
1. Analysis of what needs to be migrated
2. Step-by-step migration plan
3. Transformed code
4. Breaking changes and potential issues
5. Testing recommendations

Return your response as a JSON object with this structure:
{
    "migration_complexity": "low|medium|high",
    "estimated_effort_hours": <number>,
    "breaking_changes": ["list of breaking changes"],
    "migration_steps": ["step 1", "step 2", ...],
    "transformed_code": "The migrated code",
    "test_recommendations": ["test suggestion 1", ...],
    "notes": "Additional notes and warnings"
}
`
