package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Client-side checks
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Session errors
	ErrCodeAuthAbsent   ErrorCode = "AUTH_ABSENT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Request errors
	ErrCodeRequestFailed ErrorCode = "REQUEST_FAILED"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"

	// Event channel errors
	ErrCodeChannelClosed ErrorCode = "CHANNEL_CLOSED"
	ErrCodeChannelFailed ErrorCode = "CHANNEL_FAILED"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// UptaskError represents a structured error with context
type UptaskError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *UptaskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *UptaskError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *UptaskError) WithDetail(key string, value interface{}) *UptaskError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *UptaskError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new UptaskError
func New(code ErrorCode, message string) *UptaskError {
	return &UptaskError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an UptaskError
func Wrap(err error, code ErrorCode, message string) *UptaskError {
	return &UptaskError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific UptaskError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	uerr, ok := err.(*UptaskError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return uerr.Code
}

// ServerMessage returns the user-facing message of err. For request failures this
// is the backend's {msg}; for anything else it falls back to err.Error().
func ServerMessage(err error) string {
	if err == nil {
		return ""
	}
	if uerr, ok := As(err); ok {
		return uerr.Message
	}
	return err.Error()
}

// As returns the first UptaskError in err's chain.
func As(err error) (*UptaskError, bool) {
	for e := err; e != nil; {
		if uerr, ok := e.(*UptaskError); ok {
			return uerr, true
		}
		unwrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = unwrapper.Unwrap()
	}
	return nil, false
}
