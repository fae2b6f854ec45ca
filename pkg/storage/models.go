// Package storage persists repositories, reviews and review comments with gorm.
package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewStatus tracks a review through its lifecycle
type ReviewStatus string

const (
	StatusPending    ReviewStatus = "pending"
	StatusInProgress ReviewStatus = "in_progress"
	StatusCompleted  ReviewStatus = "completed"
	StatusFailed     ReviewStatus = "failed"
)

// IsTerminal reports whether no further transition is expected
func (s ReviewStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Model holds the columns shared by every table
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository is a GitHub or GitLab project registered for review
type Repository struct {
	Model
	Name               string `gorm:"size:255;not null" json:"name"`
	FullName           string `gorm:"size:500;not null;uniqueIndex" json:"full_name"`
	URL                string `gorm:"size:500;not null" json:"url"`
	Platform           string `gorm:"size:50;not null" json:"platform"`
	ExternalID         string `gorm:"size:100" json:"external_id,omitempty"`
	IsActive           bool   `gorm:"not null" json:"is_active"`
	AutoReviewEnabled  bool   `gorm:"not null" json:"auto_review_enabled"`
	AutoCommentEnabled bool   `gorm:"not null" json:"auto_comment_enabled"`
	TotalReviews       int    `json:"total_reviews"`
	TotalIssuesFound   int    `json:"total_issues_found"`

	Reviews []CodeReview `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// NewRepository returns an active repository with auto review enabled
func NewRepository(name, fullName, url, platform string) *Repository {
	return &Repository{
		Name:              name,
		FullName:          fullName,
		URL:               url,
		Platform:          platform,
		IsActive:          true,
		AutoReviewEnabled: true,
	}
}

// CodeReview is one review run over a pull request, a local diff or a file set
type CodeReview struct {
	Model
	UUID           string       `gorm:"size:36;uniqueIndex" json:"uuid"`
	RepositoryID   *uint        `gorm:"index" json:"repository_id,omitempty"`
	RepositoryName string       `gorm:"size:500" json:"repository"`
	PRNumber       int          `json:"pr_number,omitempty"`
	CommitSHA      string       `gorm:"size:40" json:"commit_sha,omitempty"`
	BranchName     string       `gorm:"size:255" json:"branch_name,omitempty"`
	Status         ReviewStatus `gorm:"size:20;not null;index" json:"status"`
	ErrorMessage   string       `gorm:"type:text" json:"error,omitempty"`

	TotalIssues    int `json:"total_issues"`
	CriticalIssues int `json:"critical_issues"`
	Warnings       int `json:"warnings"`
	Suggestions    int `json:"suggestions"`

	CodeQualityScore   float64 `json:"code_quality_score"`
	FilesAnalyzed      int     `json:"files_analyzed"`
	LinesOfCode        int     `json:"lines_of_code"`
	AnalysisDurationMS int64   `json:"analysis_duration_ms"`

	Comments []ReviewComment `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// BeforeCreate assigns the external identifier
func (r *CodeReview) BeforeCreate(*gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

// ReviewComment is a single finding attached to a review
type ReviewComment struct {
	Model
	UUID              string  `gorm:"size:36;uniqueIndex" json:"uuid"`
	ReviewID          uint    `gorm:"index;not null" json:"review_id"`
	FilePath          string  `gorm:"size:500;not null" json:"file_path"`
	LineNumber        *int    `json:"line_number,omitempty"`
	Severity          string  `gorm:"size:20;not null" json:"severity"`
	Category          string  `gorm:"size:100;not null" json:"category"`
	Title             string  `gorm:"size:255;not null" json:"title"`
	Description       string  `gorm:"type:text;not null" json:"description"`
	Suggestion        string  `gorm:"type:text" json:"suggestion,omitempty"`
	ConfidenceScore   float64 `json:"confidence_score"`
	ExternalCommentID string  `gorm:"size:100" json:"external_comment_id,omitempty"`
}

// BeforeCreate assigns the external identifier
func (c *ReviewComment) BeforeCreate(*gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	return nil
}
