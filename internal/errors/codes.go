// Package errors provides structured error handling for shortlistd.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (MongoDB)
//   - 3XX: Upstream errors (model service, LLM)
//   - 4XX: Validation errors
//   - 5XX: Pipeline and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates candidate store errors.
	CategoryStorage Category = "STORAGE"
	// CategoryUpstream indicates model service and LLM call errors.
	CategoryUpstream Category = "UPSTREAM"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, the run must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStoreUnavailable  = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreQueryFailed  = "ERR_202_STORE_QUERY_FAILED"
	ErrCodeCandidateNotFound = "ERR_203_CANDIDATE_NOT_FOUND"

	// Upstream errors (300-399)
	ErrCodeUpstreamTimeout     = "ERR_301_UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable = "ERR_302_UPSTREAM_UNAVAILABLE"
	ErrCodeEmbedFailed         = "ERR_303_EMBED_FAILED"
	ErrCodeRerankFailed        = "ERR_304_RERANK_FAILED"
	ErrCodeLLMFailed           = "ERR_305_LLM_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty    = "ERR_402_QUERY_EMPTY"
	ErrCodeSchemaInvalid = "ERR_403_SCHEMA_INVALID"

	// Pipeline and internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeStageFailed     = "ERR_502_STAGE_FAILED"
	ErrCodeRetrievalFailed = "ERR_503_RETRIEVAL_FAILED"
	ErrCodeRunCancelled    = "ERR_504_RUN_CANCELLED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_STORE_UNAVAILABLE")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryUpstream
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Fatal errors abort the whole run.
	switch code {
	case ErrCodeRetrievalFailed, ErrCodeRunCancelled, ErrCodeStoreUnavailable:
		return SeverityFatal
	}

	// Retryable upstream errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	// Default to error severity
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable, ErrCodeEmbedFailed, ErrCodeRerankFailed:
		return true
	default:
		return false
	}
}
