// internal/common/errors/handler.go
package errors

import "time"

// ErrorHandler normalizes and logs errors raised inside a pipeline run.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Normalize ensures we always have a StandardError.
func (h *ErrorHandler) Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HandleAgentError logs an agent failure and reports whether the pipeline
// must abort. Non-fatal failures degrade the invocation and continue.
func (h *ErrorHandler) HandleAgentError(threadID, agentID string, err error) bool {
	stdErr := h.Normalize(err)

	h.logger.Error("Agent invocation failed", map[string]interface{}{
		"threadId":      threadID,
		"agentId":       agentID,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	return IsFatal(stdErr)
}
