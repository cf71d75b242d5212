// Package lifecycle implements the rental state machine: which status and
// payment transitions are legal, and who is allowed to request them. The
// rules live here in one place; handlers and the UI only translate the
// structured errors into responses. Hiding buttons client-side is a
// convenience, not a security boundary.
package lifecycle

// Kind classifies a rejected operation so callers can map it onto an HTTP
// status and an inline message without string matching.
type Kind string

const (
	// KindValidation marks malformed or out-of-range input caught before
	// any storage access (bad dates, non-positive quantity).
	KindValidation Kind = "validation"
	// KindUnauthorized marks an actor whose role lacks permission for the
	// requested transition. Checked before the transition table.
	KindUnauthorized Kind = "unauthorized"
	// KindIllegalTransition marks a from→to pair that is not in the
	// transition table for an otherwise permitted actor.
	KindIllegalTransition Kind = "illegal_transition"
	// KindConflict marks a transition whose stored state changed
	// concurrently; the caller's cached copy was stale.
	KindConflict Kind = "conflict"
)

// Error is the structured result returned for every rejected lifecycle
// operation. It is never panicked; callers display Message inline.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func illegal(msg string) *Error {
	return &Error{Kind: KindIllegalTransition, Message: msg}
}

// Validation builds a validation error for input rejected before any
// storage or network access.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Conflict builds a conflict error for a transition rejected by the store.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// KindOf extracts the kind from an error, or empty when err is not a
// lifecycle error.
func KindOf(err error) Kind {
	if le, ok := err.(*Error); ok {
		return le.Kind
	}
	return ""
}
