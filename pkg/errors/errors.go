package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound         = NewNotFoundError("resource", "resource not found")
	ErrAlreadyExists    = NewAlreadyExistsError("resource", "resource already exists")
	ErrInvalidArgument  = NewValidationError("", "invalid argument")
	ErrInternal         = NewInternalError("internal server error", nil)
	ErrUnauthorized     = NewUnauthorizedError("unauthorized")
	ErrPermissionDenied = NewPermissionError("permission denied")
)

// HTTPStatuser is implemented by errors that map to a specific HTTP status.
type HTTPStatuser interface {
	HTTPStatus() int
}

// HTTPStatus returns the HTTP status carried by err, or 500 when none is.
func HTTPStatus(err error) int {
	var s HTTPStatuser
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// HTTPStatus implements HTTPStatuser
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus implements HTTPStatuser
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus implements HTTPStatuser
func (e *AlreadyExistsError) HTTPStatus() int {
	return http.StatusConflict
}

// UnauthorizedError is returned when no usable session backs a request.
type UnauthorizedError struct {
	Message string
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// Error implements the error interface
func (e *UnauthorizedError) Error() string {
	return e.Message
}

// HTTPStatus implements HTTPStatuser
func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

// PermissionError is returned when the current user does not own the resource it is changing.
type PermissionError struct {
	Message string
}

// NewPermissionError creates a new permission error
func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// Error implements the error interface
func (e *PermissionError) Error() string {
	return e.Message
}

// HTTPStatus implements HTTPStatuser
func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

// UpstreamError represents a failed call to the remote event API.
// StatusCode is zero when the API could not be reached at all.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(statusCode int, message string, err error) *UpstreamError {
	return &UpstreamError{
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements HTTPStatuser
func (e *UpstreamError) HTTPStatus() int {
	return http.StatusBadGateway
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements HTTPStatuser
func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}
