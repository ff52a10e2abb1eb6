// Package errors provides structured error types for the variant generator.
//
// Every failure the pipeline records carries a machine-readable [Code] so that
// run summaries can group failures and callers can tell recoverable per-item
// failures from fatal ones.
//
// # Error Codes
//
// Codes follow a plain naming convention:
//   - INVALID_*: option validation failures, raised before any processing
//   - *_ERROR: failures raised while processing images
//
// Once processing has started, only [ErrCodeDiscovery] and
// [ErrCodeManifestWrite] end a run; see [Fatal].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidQuality, "quality must be 1-100, got %d", q)
//	if errors.Is(err, errors.ErrCodeInvalidQuality) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEncode, origErr, "encode %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidQuality Code = "INVALID_QUALITY"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidWidth   Code = "INVALID_WIDTH"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Run-level errors
	ErrCodeDiscovery     Code = "DISCOVERY_ERROR"
	ErrCodeManifestWrite Code = "MANIFEST_WRITE_ERROR"
	ErrCodeManifestRead  Code = "MANIFEST_READ_ERROR"
	ErrCodeEncoding      Code = "ENCODING_ERROR"

	// Per-image and per-variant errors
	ErrCodeNameExtraction Code = "NAME_EXTRACTION_ERROR"
	ErrCodeDuplicateName  Code = "DUPLICATE_NAME"
	ErrCodeDecode         Code = "DECODE_ERROR"
	ErrCodePlaceholder    Code = "PLACEHOLDER_ERROR"
	ErrCodeEncode         Code = "ENCODE_ERROR"
	ErrCodeWrite          Code = "WRITE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CodeOr returns the code of err, or fallback when err carries none.
func CodeOr(err error, fallback Code) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	return fallback
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err aborts a whole run rather than a single item.
// Option validation failures are fatal too: they are raised before any
// image is touched.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeDiscovery, ErrCodeManifestWrite, ErrCodeManifestRead,
		ErrCodeInvalidInput, ErrCodeInvalidQuality, ErrCodeInvalidFormat, ErrCodeInvalidWidth, ErrCodeInvalidPath:
		return true
	}
	return false
}
