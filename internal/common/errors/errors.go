// Package errors provides standardized error handling for the risk engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInsufficientData ErrorCode = "INSUFFICIENT_DATA"
	ErrCodeUnknownEntity    ErrorCode = "UNKNOWN_ENTITY"

	ErrCodeAIUnavailable    ErrorCode = "AI_UNAVAILABLE"
	ErrCodeAITimeout        ErrorCode = "AI_TIMEOUT"
	ErrCodeAIRateLimited    ErrorCode = "AI_RATE_LIMITED"
	ErrCodeAIMalformedReply ErrorCode = "AI_MALFORMED_REPLY"

	ErrCodeAgentFailure      ErrorCode = "AGENT_FAILURE"
	ErrCodeAgentTimeout      ErrorCode = "AGENT_TIMEOUT"
	ErrCodeClassifierFailure ErrorCode = "CLASSIFIER_FAILURE"
	ErrCodePipelineTimeout   ErrorCode = "PIPELINE_TIMEOUT"

	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeQueryFailed        ErrorCode = "QUERY_FAILED"
	ErrCodeSearchFailed       ErrorCode = "SEARCH_FAILED"
	ErrCodeArchiveFailed      ErrorCode = "ARCHIVE_FAILED"

	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeInvalidConfig      ErrorCode = "INVALID_CONFIG"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return se.Code == e.Code
	}
	return false
}

// NewInsufficientDataError marks an analysis input as too thin to score.
// Strategies recover from this by returning a zero-risk result.
func NewInsufficientDataError(dimension string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientData,
		Message:   "Not enough data for analysis",
		Details:   fmt.Sprintf("dimension: %s", dimension),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownEntityError marks an entity absent from the configured tables.
func NewUnknownEntityError(entityType, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEntity,
		Message:   "Entity not present in risk tables",
		Details:   fmt.Sprintf("%s: %s", entityType, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIUnavailableError creates the error callers see once AI retries,
// queue waits or the breaker are exhausted.
func NewAIUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIUnavailable,
		Message:   "AI provider unavailable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAITimeoutError creates a retryable per-call timeout error.
func NewAITimeoutError(analysisType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAITimeout,
		Message:   "AI provider call timed out",
		Details:   fmt.Sprintf("analysisType: %s", analysisType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIRateLimitedError creates a retryable provider rate limit error.
func NewAIRateLimitedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIRateLimited,
		Message:   "AI provider rejected the call with a rate limit",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIMalformedReplyError creates a retryable malformed response error.
func NewAIMalformedReplyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIMalformedReply,
		Message:   "AI provider response could not be parsed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentFailureError records a single agent failure. The pipeline
// continues past it.
func NewAgentFailureError(agentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentFailure,
		Message:   "Agent execution failed",
		Details:   fmt.Sprintf("agentId: %s, error: %s", agentID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentTimeoutError records an agent exceeding its slice of the pipeline.
func NewAgentTimeoutError(agentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentTimeout,
		Message:   "Agent exceeded its execution timeout",
		Details:   fmt.Sprintf("agentId: %s", agentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierFailureError creates a fatal classification error.
func NewClassifierFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierFailure,
		Message:   "Query classification failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineTimeoutError records the overall pipeline deadline firing.
func NewPipelineTimeoutError(threadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineTimeout,
		Message:   "Pipeline exceeded its overall timeout",
		Details:   fmt.Sprintf("threadId: %s", threadID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnavailableError creates a fatal storage connectivity error.
func NewStorageUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "Storage collaborator unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryFailedError creates a retryable storage query error.
func NewQueryFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryFailed,
		Message:   "Storage query failed",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable news search error.
func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "News event search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewArchiveFailedError creates a retryable thread archive error.
func NewArchiveFailedError(threadID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArchiveFailed,
		Message:   "Failed to archive sealed thread",
		Details:   fmt.Sprintf("threadId: %s, error: %s", threadID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable alert delivery error.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Alert notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidConfigError creates a non-retryable configuration error.
func NewInvalidConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfig,
		Message:   "Configuration validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageUnavailable,
		ErrCodeQueryFailed,
		ErrCodeSearchFailed,
		ErrCodeArchiveFailed,
		ErrCodeNotificationFailed:
		return 3

	case ErrCodeAITimeout,
		ErrCodeAIRateLimited,
		ErrCodeAIMalformedReply:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsFatal reports whether the error must abort the whole pipeline rather
// than degrade it.
func IsFatal(err error) bool {
	var se *StandardError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == ErrCodeClassifierFailure || se.Code == ErrCodeStorageUnavailable
}

// CodeOf extracts the ErrorCode from any error chain, empty when absent.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "AI_"):
		return "AI"
	case strings.Contains(codeStr, "AGENT") || strings.Contains(codeStr, "CLASSIFIER") || strings.Contains(codeStr, "PIPELINE"):
		return "ORCHESTRATION"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "ARCHIVE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DATA") || strings.Contains(codeStr, "ENTITY") || strings.Contains(codeStr, "CONFIG"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
