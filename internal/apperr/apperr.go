// Package apperr defines the error vocabulary shared by the inventory
// and booking services.  Instead of one sentinel per failure, errors
// carry a Kind that handlers translate into an HTTP status.  Conflict
// errors additionally name the offending slot IDs so callers can
// re-present availability instead of retrying blindly.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind int

const (
	// Validation marks malformed input: missing fields, empty slot
	// lists, inverted date ranges.  Rejected before any transaction.
	Validation Kind = iota + 1
	// NotFound marks an unknown club, court, slot or reservation ID.
	NotFound
	// Conflict marks state that prevents the operation: a slot no
	// longer available, a lost concurrent claim, a paid/cancelled
	// transition that is not allowed.
	Conflict
	// Internal marks unexpected datastore or broker failures.
	Internal
)

// String returns the kind name used in logs and responses.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Error is the kinded error returned by services.  SlotIDs is only
// populated for slot-level conflicts.
type Error struct {
	Kind    Kind
	Message string
	SlotIDs []uint64
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.  A nil
// cause returns nil so call sites can wrap unconditionally.
func Wrap(kind Kind, msg string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// SlotConflict builds a Conflict error naming the slots that were not
// available.
func SlotConflict(msg string, slotIDs []uint64) *Error {
	return &Error{Kind: Conflict, Message: msg, SlotIDs: slotIDs}
}

// KindOf extracts the kind from err.  Errors outside this package are
// reported as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
