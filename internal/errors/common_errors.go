package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeEmpty       ErrorType = "EMPTY_DATASET"
	ErrTypeUnsupported ErrorType = "UNSUPPORTED_FILE"
	ErrTypeTooLarge    ErrorType = "TOO_LARGE"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeConfig      ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error category to a response status
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrTypeParsing, ErrTypeEmpty:
		return http.StatusUnprocessableEntity
	case ErrTypeUnsupported, ErrTypeValidation:
		return http.StatusBadRequest
	case ErrTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError reports a file that could not be read. The message is shown
// to the user verbatim.
func NewParsingError(cause error) *AppError {
	return NewAppError(ErrTypeParsing, fmt.Sprintf("Failed to read file: %v", cause), cause)
}

// NewEmptyDatasetError reports a file with no rows or no columns
func NewEmptyDatasetError(cause error) *AppError {
	return NewAppError(ErrTypeEmpty, "Your file loaded but appears to be empty.", cause)
}

// NewUnsupportedFileError reports an upload with a rejected name or extension
func NewUnsupportedFileError(message string, cause error) *AppError {
	return NewAppError(ErrTypeUnsupported, message, cause)
}

// NewTooLargeError reports an upload over the size limit
func NewTooLargeError(limit int64, cause error) *AppError {
	return NewAppError(ErrTypeTooLarge, fmt.Sprintf("file exceeds the maximum upload size of %d bytes", limit), cause).
		WithContext("max_bytes", limit)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
