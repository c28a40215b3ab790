package google

import (
	"errors"

	"github.com/spetersoncode/probe"
	"google.golang.org/genai"
)

// wrapError wraps a Google GenAI error with probe error categorization.
// It extracts status codes for proper retry handling.
// Note: Google's genai.APIError doesn't expose headers, so Retry-After is not available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error, return as-is (likely network error, handled by heuristics)
		return err
	}

	code := apiErr.Code
	category := categorizeStatusCode(code)
	msg := err.Error()

	switch category {
	case probe.ErrorTransient:
		return probe.NewTransientError(msg, code, err)
	case probe.ErrorPermanent:
		return probe.NewPermanentError(msg, code, err)
	case probe.ErrorUserInput:
		return probe.NewUserInputError(msg, code, err)
	default:
		return err
	}
}

// categorizeStatusCode determines the error category from an HTTP status code.
func categorizeStatusCode(code int) probe.ErrorCategory {
	switch {
	case code == 429:
		return probe.ErrorTransient // Rate limited
	case code >= 500 && code < 600:
		return probe.ErrorTransient // Server error
	case code == 401 || code == 403:
		return probe.ErrorPermanent // Authentication/authorization
	case code == 400 || code == 404 || code == 422:
		return probe.ErrorUserInput // Bad request or not found
	default:
		return probe.ErrorPermanent // Default to permanent for unknown codes
	}
}
