// Package errors provides structured error types for the sweeping tools.
// All errors include a category, code, message, and recoverable flag so the
// extraction pipeline can decide whether to skip a file or abort the run.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by component.
type ErrorCategory string

const (
	ErrCategoryPath      ErrorCategory = "PATH"
	ErrCategoryContent   ErrorCategory = "CONTENT"
	ErrCategoryDiscovery ErrorCategory = "DISCOVERY"
	ErrCategoryTable     ErrorCategory = "TABLE"
	ErrCategoryFit       ErrorCategory = "FIT"
	ErrCategoryIO        ErrorCategory = "IO"
	ErrCategoryInternal  ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Path codes
	CodeInvalidPathFormat = "INVALID_PATH_FORMAT"

	// Content codes
	CodeMalformedRow = "MALFORMED_ROW"
	CodeParseFailure = "PARSE_FAILURE"

	// Discovery codes
	CodeInconsistentFolderName = "INCONSISTENT_FOLDER_NAME"

	// Table codes
	CodeNonNumericField = "NON_NUMERIC_FIELD"
	CodeUnknownColumn   = "UNKNOWN_COLUMN"
	CodeMissingField    = "MISSING_FIELD"

	// Fit codes
	CodeInvalidReference = "INVALID_REFERENCE"

	// IO codes
	CodeReadFailed  = "READ_FAILED"
	CodeWriteFailed = "WRITE_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// SweepError is the structured error type used throughout the system.
type SweepError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Details     map[string]interface{}
	Cause       error
	Recoverable bool
}

// Error returns a formatted error string.
func (e *SweepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SweepError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SweepError) Is(target error) bool {
	var t *SweepError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SweepError.
func New(category ErrorCategory, code, message string) *SweepError {
	return &SweepError{
		Category:    category,
		Code:        code,
		Message:     message,
		Recoverable: isRecoverable(category, code),
	}
}

// Wrap creates a new SweepError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SweepError {
	return &SweepError{
		Category:    category,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: isRecoverable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *SweepError) WithDetails(details map[string]interface{}) *SweepError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRecoverable checks whether an error (or its chain) only affects a single
// input file. The pipeline logs recoverable errors and moves on; everything
// else terminates the run.
func IsRecoverable(err error) bool {
	var se *SweepError
	if errors.As(err, &se) {
		return se.Recoverable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SweepError.
func GetCategory(err error) ErrorCategory {
	var se *SweepError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SweepError.
func GetCode(err error) string {
	var se *SweepError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func isRecoverable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryPath && code == CodeInvalidPathFormat:
		return true
	case category == ErrCategoryContent && code == CodeMalformedRow:
		return true
	case category == ErrCategoryContent && code == CodeParseFailure:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is matching. Only category and code are compared.
var (
	ErrInvalidPathFormat      = New(ErrCategoryPath, CodeInvalidPathFormat, "invalid path format")
	ErrMalformedRow           = New(ErrCategoryContent, CodeMalformedRow, "malformed row")
	ErrParseFailure           = New(ErrCategoryContent, CodeParseFailure, "parse failure")
	ErrInconsistentFolderName = New(ErrCategoryDiscovery, CodeInconsistentFolderName, "inconsistent folder name")
	ErrNonNumericField        = New(ErrCategoryTable, CodeNonNumericField, "non-numeric field")
	ErrUnknownColumn          = New(ErrCategoryTable, CodeUnknownColumn, "unknown column")
	ErrMissingField           = New(ErrCategoryTable, CodeMissingField, "missing field")
)

// Convenience constructors for common errors.

func NewPathError(path string) *SweepError {
	return New(ErrCategoryPath, CodeInvalidPathFormat,
		fmt.Sprintf("the following path is named inconsistently, %s", path)).
		WithDetails(map[string]interface{}{"path": path})
}

func NewMalformedRowError(line int, path string) *SweepError {
	return New(ErrCategoryContent, CodeMalformedRow,
		fmt.Sprintf("unable to parse line %d from the following file: %s", line, path)).
		WithDetails(map[string]interface{}{"path": path, "line": line})
}

func NewParseError(message string, cause error) *SweepError {
	return Wrap(ErrCategoryContent, CodeParseFailure, message, cause)
}

func NewDiscoveryError(path string) *SweepError {
	return New(ErrCategoryDiscovery, CodeInconsistentFolderName,
		fmt.Sprintf("the following folder is named inconsistently, %s", path)).
		WithDetails(map[string]interface{}{"path": path})
}

func NewTableError(code, message string) *SweepError {
	return New(ErrCategoryTable, code, message)
}

func NewIOError(code, message string, cause error) *SweepError {
	return Wrap(ErrCategoryIO, code, message, cause)
}

func NewInternalError(message string, cause error) *SweepError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
