package apperrors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidInput(msg string) error {
	return New(CodeInvalidInput, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthorized, msg)
}

func NotAuthenticated(msg string) error {
	return New(CodeNotAuthenticated, msg)
}

func Immutable(msg string) error {
	return New(CodeImmutable, msg)
}

func DecryptionFailed(msg string) error {
	return New(CodeDecryptionFailed, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf дістає код з будь-якої помилки (CodeUnknown, якщо це не AppError).
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsFatal повідомляє, чи є помилка фатальною для операції (збій сховища).
// Помилки кешу/брокера ніколи не є фатальними.
func IsFatal(err error) bool {
	return CodeOf(err) == CodeInternal
}
