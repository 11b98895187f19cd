// Package apperr carries the error taxonomy shared by the booking and settlement services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and transports.
type Kind string

const (
	KindInvalid                  Kind = "invalid"
	KindNotFound                 Kind = "not_found"
	KindForbidden                Kind = "forbidden"
	KindInvalidTransition        Kind = "invalid_transition"
	KindInvalidState             Kind = "invalid_state"
	KindConcurrentModification   Kind = "concurrent_modification"
	KindAlreadyPaid              Kind = "already_paid"
	KindPaymentNotCompleted      Kind = "payment_not_completed"
	KindPayoutAccountNotVerified Kind = "payout_account_not_verified"
	KindRailRejected             Kind = "rail_rejected"
	KindRailTransient            Kind = "rail_transient"
	KindInternal                 Kind = "internal"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInvalid                  = &Error{Kind: KindInvalid}
	ErrNotFound                 = &Error{Kind: KindNotFound}
	ErrForbidden                = &Error{Kind: KindForbidden}
	ErrInvalidTransition        = &Error{Kind: KindInvalidTransition}
	ErrInvalidState             = &Error{Kind: KindInvalidState}
	ErrConcurrentModification   = &Error{Kind: KindConcurrentModification}
	ErrAlreadyPaid              = &Error{Kind: KindAlreadyPaid}
	ErrPaymentNotCompleted      = &Error{Kind: KindPaymentNotCompleted}
	ErrPayoutAccountNotVerified = &Error{Kind: KindPayoutAccountNotVerified}
	ErrRailRejected             = &Error{Kind: KindRailRejected}
	ErrRailTransient            = &Error{Kind: KindRailTransient}
)

// Error is a classified failure. Op names the operation, Err the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = e.Message
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// E builds an *Error.
func E(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around cause.
func Wrap(kind Kind, op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry after re-reading state.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrentModification, KindRailTransient:
		return true
	}
	return false
}
