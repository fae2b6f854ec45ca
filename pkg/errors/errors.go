// Package errors provides structured errors for cra with a category, severity,
// context values and suggested remedies attached to every failure.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error type
	ErrorTypeUnknown ErrorType = iota

	// ErrorTypeValidation represents invalid caller input
	ErrorTypeValidation

	// ErrorTypeNotFound represents a missing resource
	ErrorTypeNotFound

	// ErrorTypeConflict represents a duplicate resource
	ErrorTypeConflict

	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork

	// ErrorTypeAuthentication represents authentication errors
	ErrorTypeAuthentication

	// ErrorTypeRateLimit represents upstream throttling
	ErrorTypeRateLimit

	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration

	// ErrorTypeFileSystem represents file system errors
	ErrorTypeFileSystem

	// ErrorTypeGit represents local git errors
	ErrorTypeGit

	// ErrorTypeGitHub represents GitHub API errors
	ErrorTypeGitHub

	// ErrorTypeLLM represents language model provider errors
	ErrorTypeLLM

	// ErrorTypeStorage represents database errors
	ErrorTypeStorage

	// ErrorTypeCache represents cache backend errors
	ErrorTypeCache

	// ErrorTypeSystem represents system-level errors
	ErrorTypeSystem
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeValidation:     "validation",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeConflict:       "conflict",
	ErrorTypeNetwork:        "network",
	ErrorTypeAuthentication: "authentication",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeConfiguration:  "configuration",
	ErrorTypeFileSystem:     "filesystem",
	ErrorTypeGit:            "git",
	ErrorTypeGitHub:         "github",
	ErrorTypeLLM:            "llm",
	ErrorTypeStorage:        "storage",
	ErrorTypeCache:          "cache",
	ErrorTypeSystem:         "system",
}

// String returns a string representation of the error type
func (et ErrorType) String() string {
	if name, ok := errorTypeNames[et]; ok {
		return name
	}
	return "unknown"
}

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow represents low severity errors (warnings)
	SeverityLow Severity = iota

	// SeverityMedium represents medium severity errors (recoverable)
	SeverityMedium

	// SeverityHigh represents high severity errors (critical)
	SeverityHigh
)

// String returns a string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// reviewError is the concrete error produced by ErrorBuilder
type reviewError struct {
	errorType   ErrorType
	severity    Severity
	message     string
	cause       error
	context     map[string]interface{}
	recoverable bool
	suggestions []string
}

// Error implements the error interface
func (e *reviewError) Error() string {
	parts := []string{
		fmt.Sprintf("[%s:%s]", e.errorType.String(), e.severity.String()),
		e.message,
	}
	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("caused by: %s", e.cause.Error()))
	}
	return strings.Join(parts, " ")
}

// Type returns the error type
func (e *reviewError) Type() ErrorType {
	return e.errorType
}

// Severity returns the error severity
func (e *reviewError) Severity() Severity {
	return e.severity
}

// Message returns the message without type prefix or cause
func (e *reviewError) Message() string {
	return e.message
}

// Cause returns the underlying cause of the error
func (e *reviewError) Cause() error {
	return e.cause
}

// Context returns the error context
func (e *reviewError) Context() map[string]interface{} {
	return e.context
}

// IsRecoverable returns whether the error is recoverable
func (e *reviewError) IsRecoverable() bool {
	return e.recoverable
}

// Suggestions returns suggested actions to resolve the error
func (e *reviewError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the underlying error for compatibility with errors.Unwrap
func (e *reviewError) Unwrap() error {
	return e.cause
}

// ErrorBuilder helps construct structured errors
type ErrorBuilder struct {
	err reviewError
}

// NewError creates a new error builder
func NewError(errorType ErrorType) *ErrorBuilder {
	return &ErrorBuilder{err: reviewError{
		errorType:   errorType,
		severity:    SeverityMedium,
		context:     make(map[string]interface{}),
		suggestions: []string{},
	}}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.err.message = message
	return eb
}

// WithMessagef sets the error message with formatting
func (eb *ErrorBuilder) WithMessagef(format string, args ...interface{}) *ErrorBuilder {
	eb.err.message = fmt.Sprintf(format, args...)
	return eb
}

// WithCause sets the underlying cause of the error
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.err.cause = cause
	return eb
}

// WithSeverity sets the error severity
func (eb *ErrorBuilder) WithSeverity(severity Severity) *ErrorBuilder {
	eb.err.severity = severity
	return eb
}

// WithContext adds context information
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.err.context[key] = value
	return eb
}

// WithRecoverable marks the error as recoverable
func (eb *ErrorBuilder) WithRecoverable(recoverable bool) *ErrorBuilder {
	eb.err.recoverable = recoverable
	return eb
}

// WithSuggestion adds a suggested action
func (eb *ErrorBuilder) WithSuggestion(suggestion string) *ErrorBuilder {
	eb.err.suggestions = append(eb.err.suggestions, suggestion)
	return eb
}

// Build creates the final error
func (eb *ErrorBuilder) Build() error {
	built := eb.err
	return &built
}

// Convenience constructors

// ValidationError creates a validation error
func ValidationError(message string) error {
	return NewError(ErrorTypeValidation).
		WithMessage(message).
		WithSeverity(SeverityLow).
		WithRecoverable(true).
		Build()
}

// NotFoundError creates an error for a missing resource
func NotFoundError(resource string, id interface{}) error {
	return NewError(ErrorTypeNotFound).
		WithMessagef("%s %v not found", resource, id).
		WithSeverity(SeverityLow).
		WithContext("resource", resource).
		WithContext("id", id).
		Build()
}

// ConflictError creates an error for a resource that already exists
func ConflictError(resource, key string) error {
	return NewError(ErrorTypeConflict).
		WithMessagef("%s %s already exists", resource, key).
		WithSeverity(SeverityLow).
		WithContext("resource", resource).
		WithContext("key", key).
		Build()
}

// NetworkError creates a network error
func NetworkError(cause error) error {
	return NewError(ErrorTypeNetwork).
		WithMessage("network operation failed").
		WithCause(cause).
		WithRecoverable(true).
		WithSuggestion("Check your internet connection").
		WithSuggestion("Verify proxy settings if applicable").
		Build()
}

// AuthenticationError creates an authentication error
func AuthenticationError(service string) error {
	return NewError(ErrorTypeAuthentication).
		WithMessagef("authentication failed for %s", service).
		WithSeverity(SeverityHigh).
		WithContext("service", service).
		WithSuggestion(fmt.Sprintf("Check the %s credentials in your configuration", service)).
		Build()
}

// RateLimitError creates an error for upstream throttling
func RateLimitError(service string, cause error) error {
	return NewError(ErrorTypeRateLimit).
		WithMessagef("%s rate limit exceeded", service).
		WithCause(cause).
		WithRecoverable(true).
		WithContext("service", service).
		WithSuggestion("Retry after a short delay").
		Build()
}

// ConfigurationError creates a configuration error
func ConfigurationError(message string) error {
	return NewError(ErrorTypeConfiguration).
		WithMessage(message).
		WithSeverity(SeverityHigh).
		WithSuggestion("Check your configuration file").
		WithSuggestion("Run 'cra config validate' to verify settings").
		Build()
}

// FileSystemError creates a file system error
func FileSystemError(path string, cause error) error {
	return NewError(ErrorTypeFileSystem).
		WithMessagef("cannot access %s", path).
		WithCause(cause).
		WithContext("path", path).
		Build()
}

// GitError creates a git operation error
func GitError(operation string, cause error) error {
	return NewError(ErrorTypeGit).
		WithMessagef("git %s failed", operation).
		WithCause(cause).
		WithContext("operation", operation).
		WithSuggestion("Check git repository status").
		Build()
}

// GitHubError creates a GitHub API error
func GitHubError(operation string, cause error) error {
	return NewError(ErrorTypeGitHub).
		WithMessagef("GitHub %s failed", operation).
		WithCause(cause).
		WithRecoverable(true).
		WithContext("operation", operation).
		WithSuggestion("Check GitHub authentication").
		WithSuggestion("Verify repository permissions").
		Build()
}

// LLMError creates a language model provider error
func LLMError(provider string, cause error) error {
	return NewError(ErrorTypeLLM).
		WithMessagef("%s completion failed", provider).
		WithCause(cause).
		WithRecoverable(true).
		WithContext("provider", provider).
		WithSuggestion("Check the API key and model name").
		Build()
}

// StorageError creates a database error
func StorageError(operation string, cause error) error {
	return NewError(ErrorTypeStorage).
		WithMessagef("storage %s failed", operation).
		WithCause(cause).
		WithSeverity(SeverityHigh).
		WithContext("operation", operation).
		Build()
}

// CacheError creates a cache backend error
func CacheError(operation string, cause error) error {
	return NewError(ErrorTypeCache).
		WithMessagef("cache %s failed", operation).
		WithCause(cause).
		WithSeverity(SeverityLow).
		WithRecoverable(true).
		WithContext("operation", operation).
		Build()
}

// Type checking functions. They look through wrapped errors.

func asReviewError(err error) (*reviewError, bool) {
	var re *reviewError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if re, ok := asReviewError(err); ok {
		return re.Type() == errorType
	}
	return false
}

// TypeOf returns the type of the outermost structured error in err's chain
func TypeOf(err error) ErrorType {
	if re, ok := asReviewError(err); ok {
		return re.Type()
	}
	return ErrorTypeUnknown
}

// IsSeverity checks if an error has a specific severity
func IsSeverity(err error, severity Severity) bool {
	if re, ok := asReviewError(err); ok {
		return re.Severity() == severity
	}
	return false
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	if re, ok := asReviewError(err); ok {
		return re.IsRecoverable()
	}
	return false
}

// MessageOf returns the structured message of err, or err.Error() for plain errors
func MessageOf(err error) string {
	if re, ok := asReviewError(err); ok {
		return re.Message()
	}
	return err.Error()
}

// GetSuggestions extracts suggestions from an error
func GetSuggestions(err error) []string {
	if re, ok := asReviewError(err); ok {
		return re.Suggestions()
	}
	return []string{}
}

// GetContext extracts context from an error
func GetContext(err error) map[string]interface{} {
	if re, ok := asReviewError(err); ok {
		return re.Context()
	}
	return nil
}
