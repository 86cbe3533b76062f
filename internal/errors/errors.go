// Package errors provides unified error handling across prompt-genie.
//
// SYSTEM ARCHITECTURE ROLE:
// This package is the error taxonomy shared by the template store, the keyword
// model, the CLI and the TUI. Every failure that crosses a package boundary is
// an *AppError carrying a code, a category and a severity.
//
// KEY RESPONSIBILITIES:
// - Define the error codes for the four core failure kinds: validation,
//   not-found, persistence and parse
// - Provide constructors and errors.As-based predicates so wrapped errors
//   are still recognised by callers
// - Classify codes into categories and severities for interface handlers
//
// INTEGRATION POINTS:
// - internal/service/template_store.go: returns ValidationError, NotFoundError, PersistenceError
// - internal/storage/themes.go: returns ParseError and PersistenceError from Load/Save
// - internal/validation/validator.go: ValidationResult.ToAppError() converts field failures
// - internal/cli: CLIErrorHandler formats errors for the terminal
// - internal/ui: TUIErrorHandler formats errors for the status line
//
// USAGE PATTERNS:
// - Create errors: ValidationError(), NotFoundError(), PersistenceError(), ParseError()
// - Wrap errors: Wrap() adds a code and message to an existing error
// - Check kinds: IsValidation(), IsNotFound(), IsPersistence(), IsParse()
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Service errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Storage errors
	ErrCodePersistence  ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeParse        ErrorCode = "PARSE_ERROR"
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// Command errors
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// Environment errors
	ErrCodeClipboardUnavailable ErrorCode = "CLIPBOARD_UNAVAILABLE"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryService    ErrorCategory = "service"
	CategoryStorage    ErrorCategory = "storage"
	CategoryCommand    ErrorCategory = "command"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
		Retryable: isRetryable(code),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	return appErr
}

func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField:
		return CategoryValidation, SeverityWarning

	case ErrCodeInternalError:
		return CategoryService, SeverityCritical
	case ErrCodeNotFound:
		return CategoryService, SeverityInfo

	case ErrCodePersistence:
		return CategoryStorage, SeverityError
	case ErrCodeParse:
		return CategoryStorage, SeverityWarning
	case ErrCodeFileNotFound:
		return CategoryStorage, SeverityInfo

	case ErrCodeCommandFailed:
		return CategoryCommand, SeverityError

	case ErrCodeClipboardUnavailable:
		return CategorySystem, SeverityWarning

	default:
		return CategorySystem, SeverityError
	}
}

// isRetryable reports whether retrying the same operation can succeed
// without a change of input.
func isRetryable(code ErrorCode) bool {
	return code == ErrCodePersistence
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain, or converts it to one
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// HasCode reports whether err is an AppError with the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

func IsValidation(err error) bool  { return HasCode(err, ErrCodeValidation) }
func IsNotFound(err error) bool    { return HasCode(err, ErrCodeNotFound) }
func IsPersistence(err error) bool { return HasCode(err, ErrCodePersistence) }
func IsParse(err error) bool       { return HasCode(err, ErrCodeParse) }

// Common error constructors for frequently used errors
func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

// PersistenceError reports a failed write, rename or read of a data file.
// The on-disk state is unchanged when this is returned from a save.
func PersistenceError(operation string, err error) *AppError {
	return Wrap(err, ErrCodePersistence, fmt.Sprintf("Persistence operation failed: %s", operation))
}

// ParseError reports a data file that is not valid JSON or does not match its schema.
func ParseError(path string, err error) *AppError {
	return Wrap(err, ErrCodeParse, fmt.Sprintf("Failed to parse %s", path)).WithContext("path", path)
}
