// Package errors defines the structured error type shared by the time
// tools, the configuration layer and the transports.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeUnknownTimezone      = "UNKNOWN_TIMEZONE"
	ErrCodeInvalidFormatPattern = "INVALID_FORMAT_PATTERN"
	ErrCodeInvalidArgument      = "INVALID_ARGUMENT"
	ErrCodeConfigInvalid        = "ERR_CONFIG_INVALID"
	ErrCodeTransport            = "ERR_TRANSPORT"
	ErrCodeInternalError        = "ERR_INTERNAL"
)

// Error is a structured error carrying a category, a stable code and
// optional context fields.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnknownTimezone      = &Error{Type: ErrorTypeValidation, Code: ErrCodeUnknownTimezone}
	ErrInvalidFormatPattern = &Error{Type: ErrorTypeValidation, Code: ErrCodeInvalidFormatPattern}
)

// NewUnknownTimezoneError reports a zone name missing from the timezone
// database.
func NewUnknownTimezoneError(name string, cause error) *Error {
	return (&Error{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeUnknownTimezone,
		Message: fmt.Sprintf("unknown timezone %q", name),
		Cause:   cause,
	}).WithContext("timezone", name)
}

// NewInvalidFormatError reports a strftime pattern the formatter rejected.
func NewInvalidFormatError(pattern string, cause error) *Error {
	return (&Error{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidFormatPattern,
		Message: fmt.Sprintf("invalid format pattern %q", pattern),
		Cause:   cause,
	}).WithContext("date_format", pattern)
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsUnknownTimezone checks if err was caused by an unresolvable zone name.
func IsUnknownTimezone(err error) bool {
	return errors.Is(err, ErrUnknownTimezone)
}

// IsInvalidFormat checks if err was caused by a rejected format pattern.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormatPattern)
}

// IsValidationError checks if an error was caused by caller input.
func IsValidationError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeValidation
	}

	return false
}

// Code returns the code of the outermost *Error in err's chain, or
// ErrCodeInternalError when there is none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}

	return ErrCodeInternalError
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs caller mistakes as warnings and everything else as errors.
func (h *ErrorHandler) Handle(ctx context.Context, err error, fields ...interface{}) {
	if err == nil || h.logger == nil {
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		h.logger.Error(ctx, err, "Unhandled error occurred", fields...)
		return
	}

	fields = append(fields, "type", e.Type, "code", e.Code)
	for k, v := range GetErrorContext(err) {
		fields = append(fields, k, v)
	}

	if IsValidationError(err) {
		h.logger.Warn(ctx, err, "Validation error occurred", fields...)
		return
	}
	h.logger.Error(ctx, err, "Error occurred", fields...)
}
