package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure kinds the domain layer produces.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrValidationFailed       = errors.New("validation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDuplicateKey           = errors.New("duplicate key")
)

// Error is a domain error with a machine-readable code and an HTTP mapping.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing entity.
func NotFound(resource string, id interface{}) *Error {
	return &Error{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Validation reports a constraint violation on input or entity state.
func Validation(message string) *Error {
	return &Error{
		Code:    "VALIDATION_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidationFailed,
	}
}

// Validationf is Validation with a format string.
func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// InvalidTransition reports a forbidden order status change.
func InvalidTransition(message string) *Error {
	return &Error{
		Code:    "INVALID_STATE_TRANSITION",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidStateTransition,
	}
}

// Duplicate reports a unique-constraint collision.
func Duplicate(resource, field, value string) *Error {
	return &Error{
		Code:    "DUPLICATE_KEY",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrDuplicateKey,
	}
}

// HTTPStatus maps an error to the status code the API layer should return.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrInvalidStateTransition):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
