package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors along the failure taxonomy:
// transport errors are recovered by teardown-and-reinit, protocol errors are
// discarded at the receive boundary, config errors are programming-contract
// violations and the only kind allowed to abort startup.
type ErrorCode string

const (
	ErrCodeTransport     ErrorCode = "TRANSPORT_ERROR"
	ErrCodeProtocol      ErrorCode = "PROTOCOL_ERROR"
	ErrCodeNotConnected  ErrorCode = "NOT_CONNECTED"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// AppError is an application error with a code and optional context.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key-value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Context: make(map[string]interface{})}
}

// WrapError wraps an existing error with a code and message.
func WrapError(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err, Context: make(map[string]interface{})}
}

// Convenience constructors.

func NewTransportError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeTransport, message)
}

func NewProtocolError(message string) *AppError {
	return NewAppError(ErrCodeProtocol, message)
}

func NewConfigError(message string) *AppError {
	return NewAppError(ErrCodeInvalidConfig, message)
}

// IsAppError checks whether err carries an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts the AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
