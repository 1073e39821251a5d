package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status used when the error is served over HTTP.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Registration errors ---

// Arity creates an error for a factory that declares too many parameters.
func Arity(key string, params int) *AppError {
	return &AppError{
		Code: ErrCodeArity, Message: fmt.Sprintf("factory for %s should take 0 or 1 parameter, got %d", key, params),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"key": key, "params": params},
	}
}

// InvalidFactory creates an error for a factory whose signature cannot be used.
func InvalidFactory(key, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFactory, Message: fmt.Sprintf("invalid factory for %s: %s", key, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"key": key},
	}
}

// TypeMismatch creates an error for a value of the wrong type for its key.
func TypeMismatch(key, got string) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("value of type %s is not assignable to %s", got, key),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"key": key, "got": got},
	}
}

// MissingSingletonValue creates an error for a singleton entry without a value.
func MissingSingletonValue(key string) *AppError {
	return &AppError{
		Code: ErrCodeMissingSingletonValue, Message: fmt.Sprintf("singleton %s has no value", key),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"key": key},
	}
}

// --- Resolution errors ---

// Construction creates an error for a constructor that failed.
func Construction(key, reason string) *AppError {
	return &AppError{
		Code: ErrCodeConstruction, Message: fmt.Sprintf("cannot construct %s: %s", key, reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"key": key},
	}
}

// NotConstructible creates an error for a type the registry has no way to build.
func NotConstructible(key, kind string) *AppError {
	return &AppError{
		Code: ErrCodeConstruction, Message: fmt.Sprintf("cannot construct %s: %s types must be registered", key, kind),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"key": key, "kind": kind},
	}
}

// Cycle creates an error for a dependency chain that loops back on itself.
// path lists the keys from the outermost construction to the repeated key.
func Cycle(path []string) *AppError {
	return &AppError{
		Code: ErrCodeCycle, Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"path": path},
	}
}

// --- Resource and input errors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
