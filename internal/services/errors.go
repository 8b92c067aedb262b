package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrMissingDates    = errors.New("lease has no start or end date")
	ErrNoCoveringLease = errors.New("no lease covers the fine date")
	ErrInvalidAmount   = errors.New("amount must be positive")
)

// ReconciliationError is a typed error carrying the failing reconciliation
// phase and the underlying store error. The allocator propagates it to the
// caller; resolver and synchronizer only log it per unit of work.
type ReconciliationError struct {
	Op      string // "resolve_duplicates", "synchronize_schedule", "allocate_payment"
	LeaseID uint
	Err     error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation %s failed for lease %d: %v", e.Op, e.LeaseID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

func newReconciliationError(op string, leaseID uint, err error) *ReconciliationError {
	return &ReconciliationError{Op: op, LeaseID: leaseID, Err: err}
}
