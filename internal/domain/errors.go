package domain

import (
	"errors"
	"fmt"
)

// Stock adjustment failures. AdjustReservation re-validates at commit time,
// so these are the signals admission and promotion fall back on.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")
)

// ErrConcurrencyConflict is returned when a claim update loses a
// compare-and-set race, e.g. two simultaneous cancels of the same claim.
// The losing call's ledger effect is compensated before this surfaces.
var ErrConcurrencyConflict = errors.New("concurrent claim update conflict")

// ValidationError is a malformed input. It never mutates stock or claim state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is a missing claim, item or variant.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvalidTransitionError is an edge absent from the transition table, or a
// guarded operation (such as deleting a claim that still holds stock).
type InvalidTransitionError struct {
	From    ClaimStatus
	To      ClaimStatus
	Message string
}

func (e *InvalidTransitionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Message)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func NewInvalidTransitionError(from, to ClaimStatus) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
