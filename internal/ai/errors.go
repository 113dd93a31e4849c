package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when the selected provider has no credentials.
var ErrNotConfigured = errors.New("ai provider not configured")

// ErrorKind classifies provider failures so callers can pick a status code.
type ErrorKind int

const (
	ErrorGeneral ErrorKind = iota
	ErrorInvalidAPIKey
	ErrorRateLimit
	ErrorQuotaExceeded
	ErrorModelNotFound
	ErrorTokenLimit
	ErrorBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorInvalidAPIKey:
		return "invalid_api_key"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorQuotaExceeded:
		return "quota_exceeded"
	case ErrorModelNotFound:
		return "model_not_found"
	case ErrorTokenLimit:
		return "token_limit"
	case ErrorBadResponse:
		return "bad_response"
	}
	return "general"
}

// Error is a provider failure with its classification.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newBadResponse(provider, msg string, err error) *Error {
	return &Error{Kind: ErrorBadResponse, Provider: provider, Message: msg, Err: err}
}

// classify wraps an upstream SDK error. The SDKs disagree on error types, so
// the message text is what gets inspected.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) || errors.Is(err, ErrNotConfigured) {
		return err
	}
	msg := strings.ToLower(err.Error())
	kind := ErrorGeneral
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "401") || strings.Contains(msg, "unauthenticated"):
		kind = ErrorInvalidAPIKey
	case strings.Contains(msg, "quota") || strings.Contains(msg, "billing"):
		kind = ErrorQuotaExceeded
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") || strings.Contains(msg, "resource_exhausted"):
		kind = ErrorRateLimit
	case strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "404")):
		kind = ErrorModelNotFound
	case strings.Contains(msg, "token") && (strings.Contains(msg, "limit") || strings.Contains(msg, "too long")):
		kind = ErrorTokenLimit
	}
	return &Error{Kind: kind, Provider: provider, Message: "request failed", Err: err}
}
