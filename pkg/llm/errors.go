package llm

import (
	"fmt"
	"net/http"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// statusError maps a non-200 provider response onto the error taxonomy.
// Rate limits and server errors are transient; everything else is final.
func statusError(provider Provider, status int, message string) error {
	cause := fmt.Errorf("status %d: %s", status, message)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.NewError(errors.ErrorTypeAuthentication).
			WithMessagef("%s rejected the API key", provider).
			WithCause(cause).
			WithSeverity(errors.SeverityHigh).
			WithContext("provider", string(provider)).
			WithSuggestion(fmt.Sprintf("Check the %s API key in the llm section or environment", provider)).
			Build()
	case status == http.StatusTooManyRequests:
		return errors.RateLimitError(string(provider), cause)
	case status >= http.StatusInternalServerError:
		return errors.NewError(errors.ErrorTypeNetwork).
			WithMessagef("%s server error", provider).
			WithCause(cause).
			WithRecoverable(true).
			WithContext("provider", string(provider)).
			WithContext("status", status).
			Build()
	default:
		return errors.NewError(errors.ErrorTypeLLM).
			WithMessagef("%s request failed", provider).
			WithCause(cause).
			WithRecoverable(false).
			WithContext("provider", string(provider)).
			WithContext("status", status).
			Build()
	}
}

func transportError(provider Provider, err error) error {
	return errors.NewError(errors.ErrorTypeNetwork).
		WithMessagef("failed to reach %s", provider).
		WithCause(err).
		WithRecoverable(true).
		WithContext("provider", string(provider)).
		Build()
}
