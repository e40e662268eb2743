package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError is the error shape rendered by the ErrorHandler middleware.
// Status maps the error taxonomy onto HTTP; Internal carries the wrapped
// cause for logging and errors.As checks.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause
func (e *APIError) Unwrap() error {
	return e.Internal
}

func newAPIError(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Internal: err}
}

// NotFound: referenced document/version/user/file does not exist or is
// soft-deleted.
func NotFound(message string, err error) *APIError {
	return newAPIError(http.StatusNotFound, message, err)
}

// Forbidden: the principal lacks the required capability.
func Forbidden(message string, err error) *APIError {
	return newAPIError(http.StatusForbidden, message, err)
}

// Unauthorized: missing or invalid credentials.
func Unauthorized(message string, err error) *APIError {
	return newAPIError(http.StatusUnauthorized, message, err)
}

// Conflict: duplicate of something that already exists.
func Conflict(message string, err error) *APIError {
	return newAPIError(http.StatusConflict, message, err)
}

// BadRequest: malformed input at the CRUD boundary.
func BadRequest(message string, err error) *APIError {
	return newAPIError(http.StatusBadRequest, message, err)
}

// UnprocessableEntity: well-formed input that cannot be applied.
func UnprocessableEntity(message string, err error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, message, err)
}

// Internal: an underlying persistence or blob collaborator failed.
func Internal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError wraps gin binding failures. Field-level validator
// errors are surfaced as the message so clients see which field failed.
func NewValidationError(err error) *APIError {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fields := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
		return newAPIError(http.StatusUnprocessableEntity, "Validation failed: "+strings.Join(fields, ", "), err)
	}
	return newAPIError(http.StatusUnprocessableEntity, "Validation failed", err)
}
