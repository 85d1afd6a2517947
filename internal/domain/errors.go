package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrMissingAPIKey      = errors.New("api key is required")
	ErrAPI                = errors.New("api error")
	ErrParse              = errors.New("unparseable model payload")
	ErrMalformedResponse  = errors.New("malformed api response")
	ErrNoIdeas            = errors.New("no ideas generated")
	ErrNoArtifacts        = errors.New("no images generated")
	ErrUnsupportedQuality = errors.New("unsupported quality")
	ErrStaleBatch         = errors.New("idea list changed during the batch")
)

// MaxErrorBodyLength bounds the raw error text carried by APIError.
const MaxErrorBodyLength = 1000

// Validationf builds an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// APIError is returned when a remote API answers with a non-2xx status.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

// NewAPIError truncates body to MaxErrorBodyLength characters.
func NewAPIError(service string, status int, body string) *APIError {
	return &APIError{Service: service, StatusCode: status, Body: Truncate(strings.TrimSpace(body), MaxErrorBodyLength)}
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// ParseError reports a text-generation payload that is not JSON, even after
// code fences were stripped.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
