package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the lottery core. Validation errors are caller-correctable
// and never retried; ErrTransient marks store failures that are safe to retry.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidInput          = errors.New("invalid input")
	ErrAlreadyJoined         = errors.New("entrant already joined this event")
	ErrRegistrationClosed    = errors.New("registration is closed for this event")
	ErrInvitationNotPending  = errors.New("invitation is not pending")
	ErrCapacityExceeded      = errors.New("event capacity exceeded")
	ErrRegistrationNotActive = errors.New("registration is not active")
	ErrInsufficientPool      = errors.New("not enough entrants left in the pool")
	ErrTransient             = errors.New("transient store failure")
	ErrOperationFailed       = errors.New("operation failed")
)

// TransientError wraps a store failure (serialization conflict, deadlock, dropped
// connection) that may succeed when the whole unit of work is retried.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// OperationFailedError is surfaced once the retry budget for a transient failure is spent.
type OperationFailedError struct {
	Op  string
	Err error
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("%s: operation failed: %v", e.Op, e.Err)
}

func (e *OperationFailedError) Unwrap() error { return e.Err }

func (e *OperationFailedError) Is(target error) bool { return target == ErrOperationFailed }

// IsValidation reports whether err is one of the caller-correctable validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrAlreadyJoined,
		ErrRegistrationClosed,
		ErrInvitationNotPending,
		ErrCapacityExceeded,
		ErrRegistrationNotActive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
