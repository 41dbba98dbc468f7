package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *UptaskError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *UptaskError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// AuthAbsent is returned by every authenticated call made without a bearer token.
func AuthAbsent() *UptaskError {
	return New(ErrCodeAuthAbsent, "no session token")
}

// Validation creates a client-side validation error. The message is shown to the user as-is.
func Validation(msg string) *UptaskError {
	return New(ErrCodeValidation, msg)
}

// RequestFailed creates an error for a request the backend rejected.
// msg is the server's {msg} when it sent one.
func RequestFailed(method, path string, status int, msg string) *UptaskError {
	code := ErrCodeRequestFailed
	switch status {
	case 401, 403:
		code = ErrCodeUnauthorized
	case 404:
		code = ErrCodeNotFound
	}
	if msg == "" {
		msg = fmt.Sprintf("%s %s returned status %d", method, path, status)
	}
	return New(code, msg).
		WithDetail("method", method).
		WithDetail("path", path).
		WithDetail("status", status)
}

// ChannelClosed creates an error for a publish attempted while no room is open.
func ChannelClosed(kind string) *UptaskError {
	return New(ErrCodeChannelClosed, fmt.Sprintf("event channel is not connected; dropped %s", kind)).
		WithDetail("event", kind)
}
