package util

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError standardizes errors returned by the platform API.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Detail     any
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// NewAPIError constructs an APIError for the given HTTP status.
func NewAPIError(status int, message string, detail any) *APIError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return &APIError{
		Code:       codeForStatus(status),
		Message:    message,
		StatusCode: status,
		Detail:     detail,
	}
}

// NewNetworkError wraps a transport-level failure that produced no response.
func NewNetworkError(err error) *APIError {
	return &APIError{
		Code:    "NETWORK_ERROR",
		Message: "network error",
		Detail:  err.Error(),
	}
}

// AsAPIError unwraps err into an APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == status
}

// IsRoleSignal reports whether err is the kind of rejection that carries
// meaning during role probing (the caller simply lacks this role) rather
// than an unexpected failure.
func IsRoleSignal(err error) bool {
	return IsStatus(err, http.StatusUnauthorized) ||
		IsStatus(err, http.StatusForbidden) ||
		IsStatus(err, http.StatusNotFound)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	default:
		if status >= 500 {
			return "SERVER_ERROR"
		}
		return "REQUEST_FAILED"
	}
}
