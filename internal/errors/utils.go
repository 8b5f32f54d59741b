package errors

import (
	"errors"
	"maps"
)

// Wrap wraps an error with a category and code, keeping the context of an
// inner *Error if there is one.
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Type:    errType,
			Code:    code,
			Message: message,
			Cause:   e,
			Context: maps.Clone(e.Context),
		}
	}

	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapNetwork wraps an error as a transport error
func WrapNetwork(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeNetwork, code, message)
}

// GetErrorContext collects context fields along err's chain. Outer errors
// win on key conflicts.
func GetErrorContext(err error) map[string]interface{} {
	result := make(map[string]interface{})

	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		for k, v := range e.Context {
			if _, exists := result[k]; !exists {
				result[k] = v
			}
		}
		err = e.Cause
	}

	return result
}
