// Package core defines the ledger domain types and the error taxonomy shared
// by every layer. Errors are classified with errors.As so wrapping with
// fmt.Errorf("...: %w", err) anywhere in the stack is safe.
package core

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an entity that is absent or not owned by the caller.
// The two cases are deliberately indistinguishable. Never retried.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports write contention on an atomic commit. The coordinator
// retries it internally; when it escapes the coordinator the caller may
// resubmit the whole operation.
type ConflictError struct {
	Op  string
	Err error
}

func NewConflictError(op string, err error) *ConflictError {
	return &ConflictError{Op: op, Err: err}
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: write conflict", e.Op)
	}
	return fmt.Sprintf("%s: write conflict: %v", e.Op, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Retryable marks the operation as safe to resubmit as a whole unit.
func (e *ConflictError) Retryable() bool { return true }

// AuthorizationError reports a missing or invalid owner context. Produced at
// the request boundary and propagated unchanged.
type AuthorizationError struct {
	Reason string
}

func NewAuthorizationError(reason string) *AuthorizationError {
	return &AuthorizationError{Reason: reason}
}

func (e *AuthorizationError) Error() string {
	return "unauthorized: " + e.Reason
}

// InvariantError reports a programming-invariant violation, such as a category
// count driven negative. It is a bug, not a user error, and is never retried.
type InvariantError struct {
	Msg string
}

func NewInvariantError(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Msg
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// IsRetryable reports whether the caller may safely resubmit the operation.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
