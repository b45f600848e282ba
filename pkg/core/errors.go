package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every structured error below matches exactly one of these via errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrLockConflict  = errors.New("note is locked")
	ErrForbidden     = errors.New("forbidden")
	ErrCorruptRecord = errors.New("corrupt record")
)

// ValidationError reports bad or missing input. Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing note or user.
type NotFoundError struct {
	Kind string // "note" or "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// LockConflictError reports that a note is held by another user.
type LockConflictError struct {
	ID     string
	Holder string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("note %s is locked by %s", e.ID, e.Holder)
}

func (e *LockConflictError) Is(target error) bool { return target == ErrLockConflict }

// ForbiddenError reports an action the caller may not perform,
// such as releasing a lock held by somebody else.
type ForbiddenError struct {
	ID      string
	Holder  string
	Message string
}

func (e *ForbiddenError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("note %s is locked by another user (%s)", e.ID, e.Holder)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// CorruptRecordError reports an on-disk record that violates the record encoding.
// It is a data-integrity fault and must never be auto-repaired.
type CorruptRecordError struct {
	ID     string
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record %s: %s", e.ID, e.Reason)
}

func (e *CorruptRecordError) Is(target error) bool { return target == ErrCorruptRecord }

// TransferError reports a transfer that failed after some notes were already rewritten.
type TransferError struct {
	Transferred int
	Err         error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer aborted after %d notes: %v", e.Transferred, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Re-exported so callers can match errors through this package alone.
var (
	Is = errors.Is
	As = errors.As
)
