package errors

import (
	"fmt"
)

// ShortlistError is the structured error type for shortlistd.
// It provides rich context for error handling, logging, and the warning
// trail surfaced in shortlist responses.
type ShortlistError struct {
	// Code is the unique error code (e.g., "ERR_303_EMBED_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Upstream, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Stage is the pipeline stage the error occurred in, if any
	// (e.g., "retrieval", "ranking").
	Stage string

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ShortlistError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ShortlistError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ShortlistError.
func (e *ShortlistError) Is(target error) bool {
	if t, ok := target.(*ShortlistError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ShortlistError) WithDetail(key, value string) *ShortlistError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithStage records the pipeline stage the error occurred in.
// Returns the error for method chaining.
func (e *ShortlistError) WithStage(stage string) *ShortlistError {
	e.Stage = stage
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *ShortlistError) WithSuggestion(suggestion string) *ShortlistError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ShortlistError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ShortlistError {
	return &ShortlistError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ShortlistError from an existing error.
// The error's message becomes the ShortlistError message.
func Wrap(code string, err error) *ShortlistError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ShortlistError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates a candidate-store error.
func StoreError(message string, cause error) *ShortlistError {
	return New(ErrCodeStoreQueryFailed, message, cause)
}

// UpstreamError creates a model-service or LLM call error.
// Upstream errors are typically retryable.
func UpstreamError(message string, cause error) *ShortlistError {
	return New(ErrCodeUpstreamUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ShortlistError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ShortlistError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a ShortlistError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*ShortlistError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the pipeline run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*ShortlistError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ShortlistError.
// Returns empty string if not a ShortlistError.
func GetCode(err error) string {
	if se, ok := err.(*ShortlistError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ShortlistError.
// Returns empty string if not a ShortlistError.
func GetCategory(err error) Category {
	if se, ok := err.(*ShortlistError); ok {
		return se.Category
	}
	return ""
}
