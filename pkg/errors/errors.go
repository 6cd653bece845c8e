package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies application errors for HTTP mapping and logging.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeConfiguration    ErrorCode = "CONFIGURATION"
	CodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	CodePortAssignment   ErrorCode = "PORT_ASSIGNMENT"
	CodeReadiness        ErrorCode = "READINESS"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeNotRunning       ErrorCode = "NOT_RUNNING"
	CodeCommunication    ErrorCode = "COMMUNICATION"
	CodeRemoteChat       ErrorCode = "REMOTE_CHAT"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError carries an error code, a human-readable message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError with the given code and cause.
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Err: cause}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

func NewConfigurationError(message string) *AppError {
	return &AppError{Code: CodeConfiguration, Message: message}
}

func NewTemplateNotFoundError(message string) *AppError {
	return &AppError{Code: CodeTemplateNotFound, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewNotRunningError(message string) *AppError {
	return &AppError{Code: CodeNotRunning, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool     { return Is(err, CodeNotFound) }
func IsNotRunning(err error) bool   { return Is(err, CodeNotRunning) }
func IsInvalidInput(err error) bool { return Is(err, CodeInvalidInput) }

// CodeOf extracts the error code, defaulting to CodeInternal for plain errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
