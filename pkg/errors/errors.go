// Package errors provides structured error types for promptree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Missing nodes, edges or roots
//   - DUPLICATE_ID / DANGLING_EDGE: Graph integrity violations
//   - GENERATION_*: Failures of the generation collaborator
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "prompt text cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeImportParse, origErr, "decode %s", path)
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
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Graph integrity errors
	ErrCodeDuplicateID  Code = "DUPLICATE_ID"
	ErrCodeDanglingEdge Code = "DANGLING_EDGE"

	// Serialization errors
	ErrCodeImportParse Code = "IMPORT_PARSE"
	ErrCodeTooLarge    Code = "PAYLOAD_TOO_LARGE"

	// Generation errors
	ErrCodeGenerationBatch Code = "GENERATION_BATCH_FAILED"
	ErrCodeUnauthorized    Code = "UNAUTHORIZED"

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
// Returns empty string if the error is neither an *Error nor a *BatchError.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var b *BatchError
	if errors.As(err, &b) {
		return b.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// BatchError reports a generation batch in which at least one call failed.
// The affected placeholders have already been marked; the error exists for
// logging and inspection only.
type BatchError struct {
	PromptID string // Prompt node whose completions failed
	Size     int    // Number of calls in the batch
	Cause    error  // First failure observed
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("generation batch for %s (%d calls) failed: %v", e.PromptID, e.Size, e.Cause)
}

// Unwrap returns the first failure observed in the batch.
func (e *BatchError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *BatchError) Code() Code {
	return ErrCodeGenerationBatch
}
