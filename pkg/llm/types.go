package llm

// SnippetReview is the free-text review of a code snippet
type SnippetReview struct {
	Review      string   `json:"review"`
	Suggestions []string `json:"suggestions"`
	// Mock is set when no provider was configured and heuristics were used instead
	Mock bool `json:"mock"`
}

// FileReview is the structured review of a whole file
type FileReview struct {
	OverallScore     float64     `json:"overall_score"`
	SecurityScore    float64     `json:"security_score"`
	PerformanceScore float64     `json:"performance_score"`
	QualityScore     float64     `json:"quality_score"`
	Issues           []FileIssue `json:"issues"`
	Summary          string      `json:"summary"`
	Mock             bool        `json:"mock,omitempty"`

	// Error and RawResponse are set when the model output was not valid JSON
	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// FileIssue is one finding reported by the model
type FileIssue struct {
	Line        int     `json:"line"`
	Severity    string  `json:"severity"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Suggestion  string  `json:"suggestion"`
	Confidence  float64 `json:"confidence"`
}

// Pattern is a design pattern, anti-pattern or code smell
type Pattern struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Line           int     `json:"line"`
	Confidence     float64 `json:"confidence"`
	Description    string  `json:"description"`
	Impact         string  `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// CustomPattern asks the model to look for a team-specific pattern
type CustomPattern struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// MigrationPlan describes moving code between frameworks or versions
type MigrationPlan struct {
	MigrationComplexity  string   `json:"migration_complexity"`
	EstimatedEffortHours float64  `json:"estimated_effort_hours"`
	BreakingChanges      []string `json:"breaking_changes"`
	MigrationSteps       []string `json:"migration_steps"`
	TransformedCode      string   `json:"transformed_code"`
	TestRecommendations  []string `json:"test_recommendations"`
	Notes                string   `json:"notes"`

	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}
