// Package coreerrors defines the error taxonomy every layer of the media
// core maps its failures onto: a handful of Code values the request
// boundary and the task runner both understand, carried on a single
// wrapping error type in the teacher's DomainError style.
package coreerrors

import (
	"errors"
	"fmt"
)

// Code identifies one of the error kinds callers need to branch on. The
// string values double as the zap field and metric label emitted for them.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidData        Code = "INVALID_DATA"
	CodeNotLoggedIn        Code = "NOT_LOGGED_IN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnsupportedMedia   Code = "UNSUPPORTED_MEDIA"
	CodeUnexpectedPath     Code = "UNEXPECTED_PATH"
	CodeConfigError        Code = "CONFIG_ERROR"
	CodeS3Error            Code = "S3_ERROR"
	CodeDbError            Code = "DB_ERROR"
	CodeIoError            Code = "IO_ERROR"
	CodeJsonError          Code = "JSON_ERROR"
	CodeRenderError        Code = "RENDER_ERROR"
)

// CoreError is the error value every domain and pipeline function that
// can fail in a classifiable way returns.
type CoreError struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *CoreError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.cause
}

// New builds a CoreError with no wrapped cause.
func New(code Code, message string) *CoreError {
	return &CoreError{Code: code, Message: message, Details: map[string]any{}}
}

// Wrap builds a CoreError around a lower-level failure (DB driver, storage
// client, JSON decoder, filesystem) without losing it from errors.Is/As.
func Wrap(code Code, cause error, message string) *CoreError {
	return &CoreError{Code: code, Message: message, Details: map[string]any{}, cause: cause}
}

// WithDetail attaches a diagnostic key/value and returns the receiver for
// chaining at the call site.
func (e *CoreError) WithDetail(key string, value any) *CoreError {
	e.Details[key] = value
	return e
}

// Is reports whether err carries the given Code, unwrapping through any
// wrapping chain.
func Is(err error, code Code) bool {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// As extracts the *CoreError from err, if any.
func As(err error) (*CoreError, bool) {
	var ce *CoreError
	ok := errors.As(err, &ce)
	return ce, ok
}

// Constructors for the taxonomy's most common call sites.

func NotFound(entity string, id string) *CoreError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity)).WithDetail("id", id)
}

func InvalidData(message string) *CoreError {
	return New(CodeInvalidData, message)
}

func NotLoggedIn() *CoreError {
	return New(CodeNotLoggedIn, "authentication required")
}

// InvalidCredentials is returned by verify_credentials for both an
// unknown email and a wrong password — never distinguishing the two, so
// a failed login can't be used to enumerate registered addresses.
func InvalidCredentials() *CoreError {
	return New(CodeInvalidCredentials, "invalid email or password")
}

func UnsupportedMedia(mime string) *CoreError {
	return New(CodeUnsupportedMedia, "unsupported media type").WithDetail("mime", mime)
}

func UnexpectedPath(path string) *CoreError {
	return New(CodeUnexpectedPath, "path does not resolve to a known resource").WithDetail("path", path)
}

func ConfigError(message string, cause error) *CoreError {
	return Wrap(CodeConfigError, cause, message)
}

func S3Error(cause error) *CoreError {
	return Wrap(CodeS3Error, cause, "storage operation failed")
}

func DbError(cause error) *CoreError {
	return Wrap(CodeDbError, cause, "database operation failed")
}

func IoError(cause error) *CoreError {
	return Wrap(CodeIoError, cause, "filesystem operation failed")
}

func JsonError(cause error) *CoreError {
	return Wrap(CodeJsonError, cause, "json decode/encode failed")
}

func RenderError(cause error) *CoreError {
	return Wrap(CodeRenderError, cause, "rendering failed")
}
