package errors

import "net/http"

// Error codes clients can switch on.
const (
	CodeInternal         = "internal_error"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeStoreUnavailable = "store_unavailable"
	CodeTaskNotFound     = "task_not_found"
	CodeCategoryNotFound = "category_not_found"
	CodeSubtaskNotFound  = "subtask_not_found"
	CodeTaskCompleted    = "task_completed"
	CodeTimerRunning     = "timer_running"
	CodeEmailExists      = "email_exists"
)

// APIError is returned by services and written by handlers as
// {"error": {"code", "message", "details"}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, orDefault(message, "internal server error"))
}

// Unavailable reports a failed store round-trip. Callers must not retry automatically.
func Unavailable(message string) *APIError {
	return New(http.StatusServiceUnavailable, CodeStoreUnavailable, orDefault(message, "store unavailable"))
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, CodeUnauthorized, orDefault(message, "unauthorized"))
}

func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, CodeForbidden, orDefault(message, "forbidden"))
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
