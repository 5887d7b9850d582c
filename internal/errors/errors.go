// Package errors provides structured error types for the simherd system.
// All errors carry a category, code and message so callers can react to
// failure classes without matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryDecode   ErrorCategory = "DECODE"
	ErrCategoryManifest ErrorCategory = "MANIFEST"
	ErrCategorySweep    ErrorCategory = "SWEEP"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryCatalog  ErrorCategory = "CATALOG"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Decode codes
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeNoSpatialDimension = "NO_SPATIAL_DIMENSION"
	CodeCorruptContainer   = "CORRUPT_CONTAINER"

	// Manifest codes
	CodeManifestNotFound = "MANIFEST_NOT_FOUND"
	CodeManifestMalformed = "MANIFEST_MALFORMED"

	// Sweep codes
	CodeIterationOutOfRange = "ITERATION_OUT_OF_RANGE"
	CodeReadFailed          = "READ_FAILED"

	// Storage codes
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"

	// Catalog codes
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeRunNotFound     = "RUN_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// SimherdError is the structured error type used throughout the system.
type SimherdError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *SimherdError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SimherdError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SimherdError) Is(target error) bool {
	var t *SimherdError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SimherdError.
func New(category ErrorCategory, code, message string) *SimherdError {
	return &SimherdError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new SimherdError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SimherdError {
	return &SimherdError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SimherdError.
func GetCategory(err error) ErrorCategory {
	var se *SimherdError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SimherdError.
func GetCode(err error) string {
	var se *SimherdError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Convenience constructors for common errors.

func NewConfigError(message string) *SimherdError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewDecodeError(code, message string, cause error) *SimherdError {
	return Wrap(ErrCategoryDecode, code, message, cause)
}

func NewManifestError(code, message string, cause error) *SimherdError {
	return Wrap(ErrCategoryManifest, code, message, cause)
}

func NewSweepError(code, message string, cause error) *SimherdError {
	return Wrap(ErrCategorySweep, code, message, cause)
}

func NewStorageError(code, message string, cause error) *SimherdError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *SimherdError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewInternalError(message string, cause error) *SimherdError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
