// Package apperrors provides sentinel and custom error types for the application.
package apperrors

import "errors"

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrLimitExceeded is the sentinel for limit-exceeded errors (e.g. too many files in one upload).
var ErrLimitExceeded = &LimitExceededError{}

// LimitExceededError is a sentinel error for limit-exceeded conditions.
type LimitExceededError struct {
	Message string
}

// NewLimitExceededError creates a LimitExceededError with a custom message.
func NewLimitExceededError(message string) *LimitExceededError {
	return &LimitExceededError{Message: message}
}

// Error implements the error interface.
func (e *LimitExceededError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "limit exceeded"
}

// Is implements the error interface for error comparison.
func (e *LimitExceededError) Is(target error) bool {
	_, ok := target.(*LimitExceededError)

	return ok
}

// ErrConflict is the sentinel for conflict errors (e.g. a candidate name that already exists).
var ErrConflict = &ConflictError{}

// ConflictError is a sentinel error for resource conflicts.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is implements the error interface for error comparison.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}

// Kind classifies a failure at an external call boundary.
type Kind string

// External boundary kinds.
const (
	KindExtraction     Kind = "extraction"
	KindSummarization  Kind = "summarization"
	KindRetrieval      Kind = "retrieval"
	KindGeneration     Kind = "generation"
	KindClassification Kind = "classification"
	KindStorage        Kind = "storage"
)

// Sentinels for errors.Is on ExternalError kinds.
var (
	ErrExtraction     = &ExternalError{Kind: KindExtraction}
	ErrSummarization  = &ExternalError{Kind: KindSummarization}
	ErrRetrieval      = &ExternalError{Kind: KindRetrieval}
	ErrGeneration     = &ExternalError{Kind: KindGeneration}
	ErrClassification = &ExternalError{Kind: KindClassification}
	ErrStorage        = &ExternalError{Kind: KindStorage}
)

// ExternalError wraps a failure returned by an external collaborator
// (PDF parser, LLM, vector store).
type ExternalError struct {
	Kind Kind
	Op   string
	Err  error
}

// NewExternalError wraps err with kind and the operation that failed.
func NewExternalError(kind Kind, op string, err error) *ExternalError {
	return &ExternalError{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *ExternalError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *ExternalError) Unwrap() error {
	return e.Err
}

// Is matches another ExternalError of the same kind.
func (e *ExternalError) Is(target error) bool {
	t, ok := target.(*ExternalError)
	if !ok {
		return false
	}

	return t.Kind == "" || t.Kind == e.Kind
}

// KindOf returns the kind of the first ExternalError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ext *ExternalError
	if errors.As(err, &ext) {
		return ext.Kind
	}

	return ""
}
