package errors

import (
	stderrors "errors"
	"fmt"

	"gosize/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is kept from an
// inner AppError or derived from domain sentinels.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, a code derived from the
// domain sentinels, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case core.IsPowerNotAchievable(err):
		return CodePowerNotAchievable
	case core.IsConfigurationError(err):
		return CodeConfigInvalid
	case err == nil:
		return ""
	}
	return "UNKNOWN"
}

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case CodeConfigInvalid, CodeInvalidInput:
		return 2
	case CodePowerNotAchievable:
		return 3
	default:
		return 1
	}
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInvalidInput       = "INVALID_INPUT"
	CodePowerNotAchievable = "POWER_NOT_ACHIEVABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Common error constructors

// ConfigInvalid reports a configuration problem. It matches core.ErrConfiguration.
func ConfigInvalid(message string) *AppError {
	return &AppError{
		Code:    CodeConfigInvalid,
		Message: message,
		Cause:   core.ErrConfiguration,
	}
}

func InvalidInput(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Cause:   cause,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
