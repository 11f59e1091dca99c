package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential means no API key or bearer token was supplied.
	ErrNoCredential = errors.New("no credential configured")

	// ErrUnauthorized covers rejected credentials.
	ErrUnauthorized = errors.New("credential rejected by provider")

	// ErrRateLimited covers provider throttling.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrServerError covers provider-side failures.
	ErrServerError = errors.New("provider server error")

	// ErrResponseParse means the provider replied but the reply was not the
	// JSON shape the prompt asked for. Distinct from any HTTP failure.
	ErrResponseParse = errors.New("failed to parse provider response")
)

// APIError carries the HTTP status of a failed provider call and unwraps to
// the matching taxonomy sentinel so callers can classify with errors.Is.
type APIError struct {
	StatusCode int
	Detail     string
	kind       error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// NewAPIError classifies a status code with the default mapping.
func NewAPIError(status int, detail string) *APIError {
	var kind error
	switch {
	case status == 401 || status == 403:
		kind = ErrUnauthorized
	case status == 429:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrServerError
	}
	return &APIError{StatusCode: status, Detail: detail, kind: kind}
}

// NewAPIErrorKind is for providers whose status conventions differ from the
// default mapping, e.g. Gemini signalling a bad API key with 400.
func NewAPIErrorKind(status int, detail string, kind error) *APIError {
	return &APIError{StatusCode: status, Detail: detail, kind: kind}
}
