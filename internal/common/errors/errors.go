// Package errors provides the standardized error taxonomy used across the response pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeProviderTimeout   ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderAuth      ErrorCode = "PROVIDER_AUTH"
	ErrCodeProviderNetwork   ErrorCode = "PROVIDER_NETWORK"
	ErrCodeProviderMalformed ErrorCode = "PROVIDER_MALFORMED"

	ErrCodeReplyParseFailed ErrorCode = "REPLY_PARSE_FAILED"

	ErrCodeRetrievalSourceFailed ErrorCode = "RETRIEVAL_SOURCE_FAILED"
	ErrCodeRetrievalTimeout      ErrorCode = "RETRIEVAL_TIMEOUT"

	ErrCodeStoreOperationFailed ErrorCode = "STORE_OPERATION_FAILED"
	ErrCodeDatabaseConnection   ErrorCode = "DATABASE_CONNECTION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// IsRetryable reports whether the operation that produced e may be retried.
func (e *StandardError) IsRetryable() bool {
	return e.Retryable
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a timeout error for an LLM call of the given kind.
func NewProviderTimeoutError(kind string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("LLM %s call timed out", kind),
		Details:   fmt.Sprintf("call exceeded %s timeout", timeout),
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderAuthError is never retried; it signals a credential or configuration problem.
func NewProviderAuthError(err error) *StandardError {
	return newError(ErrCodeProviderAuth, "LLM provider rejected credentials", err, false)
}

func NewProviderNetworkError(err error, retryable bool) *StandardError {
	return newError(ErrCodeProviderNetwork, "LLM provider unreachable", err, retryable)
}

func NewProviderMalformedError(err error) *StandardError {
	return newError(ErrCodeProviderMalformed, "LLM provider returned a malformed response", err, false)
}

func NewReplyParseError(err error) *StandardError {
	return newError(ErrCodeReplyParseFailed, "Model reply did not match the reply schema", err, false)
}

func NewRetrievalSourceError(source string, err error) *StandardError {
	return newError(ErrCodeRetrievalSourceFailed, fmt.Sprintf("Retrieval source '%s' failed", source), err, false).
		WithMetadata("source", source)
}

func NewRetrievalTimeoutError(source string) *StandardError {
	return (&StandardError{
		Code:      ErrCodeRetrievalTimeout,
		Message:   fmt.Sprintf("Retrieval source '%s' timed out", source),
		Timestamp: time.Now().UTC(),
	}).WithMetadata("source", source)
}

// NewStoreError wraps a MessageStore failure. Store errors surface as HTTP 500.
func NewStoreError(operation string, err error) *StandardError {
	return newError(ErrCodeStoreOperationFailed, fmt.Sprintf("Message store %s failed", operation), err, true).
		WithMetadata("operation", operation)
}

func NewDatabaseConnectionError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnection, "Database connection failed", err, true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderNetwork,
		ErrCodeStoreOperationFailed,
		ErrCodeDatabaseConnection:
		return 3

	case ErrCodeRetrievalSourceFailed:
		return 1

	default:
		// Timeouts are not retried so a request stays inside its deadline.
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "LLM"
	case strings.HasPrefix(codeStr, "REPLY"):
		return "PARSING"
	case strings.HasPrefix(codeStr, "RETRIEVAL"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
