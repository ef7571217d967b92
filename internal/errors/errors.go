package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a memo error code.
type ErrorCode string

const (
	ErrStorageUnavailable   ErrorCode = "STORAGE_UNAVAILABLE"   // 503
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
	ErrHistoryUnavailable   ErrorCode = "HISTORY_UNAVAILABLE"   // 404
	ErrInvalidArgument      ErrorCode = "INVALID_ARGUMENT"      // 400
	ErrClipboardUnavailable ErrorCode = "CLIPBOARD_UNAVAILABLE" // 503
	ErrInsertFailure        ErrorCode = "INSERT_FAILURE"        // 500
	ErrDeclined             ErrorCode = "DECLINED"              // 409
	ErrFileNotFound         ErrorCode = "FILE_NOT_FOUND"        // 404
	ErrCancelled            ErrorCode = "CANCELLED"             // 499
	ErrInternal             ErrorCode = "INTERNAL"              // 500
)

// Process exit codes used by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInvalidArg = 2
)

// MemoError represents a structured error with code, status, and details.
type MemoError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *MemoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *MemoError) Unwrap() error {
	return e.Err
}

// NewStorageUnavailable creates a 503 error for when the store cannot be opened.
func NewStorageUnavailable(err error) *MemoError {
	msg := "storage unavailable"
	if err != nil {
		msg = fmt.Sprintf("storage unavailable: %v", err)
	}
	return &MemoError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: msg,
		Err:     err,
	}
}

// NewNotFound creates a 404 error for a relative index with no entry.
func NewNotFound(index int) *MemoError {
	return &MemoError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "not found",
		Details: map[string]any{"index": index},
	}
}

// NewHistoryUnavailable creates an informational error when no history command is available.
func NewHistoryUnavailable(msg string) *MemoError {
	if msg == "" {
		msg = "no history command found"
	}
	return &MemoError{
		Code:    ErrHistoryUnavailable,
		Status:  404,
		Message: msg,
	}
}

// NewInvalidArgument creates a 400 error for malformed arguments.
func NewInvalidArgument(msg string) *MemoError {
	return &MemoError{
		Code:    ErrInvalidArgument,
		Status:  400,
		Message: msg,
	}
}

// NewClipboardUnavailable creates a 503 error when no clipboard sink accepted the text.
func NewClipboardUnavailable(err error) *MemoError {
	msg := "clipboard unavailable"
	if err != nil {
		msg = fmt.Sprintf("clipboard unavailable: %v", err)
	}
	return &MemoError{
		Code:    ErrClipboardUnavailable,
		Status:  503,
		Message: msg,
		Err:     err,
	}
}

// NewInsertFailure creates a 500 error for a failed write to the store.
func NewInsertFailure(err error) *MemoError {
	msg := "insert failed"
	if err != nil {
		msg = fmt.Sprintf("insert failed: %v", err)
	}
	return &MemoError{
		Code:    ErrInsertFailure,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// NewDeclined creates a 409 error when a dangerous command was not confirmed.
func NewDeclined(cmd string) *MemoError {
	return &MemoError{
		Code:    ErrDeclined,
		Status:  409,
		Message: "declined",
		Details: map[string]any{"cmd": cmd},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *MemoError {
	return &MemoError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates an error for an operation stopped by context cancellation.
func NewCancelled(op string) *MemoError {
	return &MemoError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MemoError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MemoError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a MemoError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MemoError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// ExitCode maps an error to the CLI exit code.
// Informational and degraded conditions exit 0.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var mErr *MemoError
	if !stderrors.As(err, &mErr) {
		return ExitFailure
	}
	switch mErr.Code {
	case ErrInvalidArgument:
		return ExitInvalidArg
	case ErrHistoryUnavailable, ErrClipboardUnavailable, ErrInsertFailure:
		return ExitOK
	default:
		return ExitFailure
	}
}
