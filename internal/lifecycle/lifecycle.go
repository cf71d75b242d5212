package lifecycle

import "fmt"

// Status is the fulfilment state of a rental. A rental starts as pending
// and only a manager moves it forward; completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks money independently of fulfilment. It moves strictly
// unpaid → paid → refunded; a refund without a prior payment is rejected.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Role values carried in the JWT "role" claim. Only managers may mutate a
// rental after creation.
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
)

// Actor is the session context for a lifecycle request: who is asking and
// with which role. It is created at authentication and passed explicitly to
// every operation; there is no ambient current-user state.
type Actor struct {
	UserID uint64
	Role   string
}

// IsManager reports whether the actor holds the manager role.
func (a Actor) IsManager() bool { return a.Role == RoleManager }

// statusTransitions is the full table of legal status moves. Anything not
// listed here is an illegal transition, including every move out of the
// terminal states.
var statusTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusActive},
	StatusActive:   {StatusCompleted},
}

// ParseStatus validates a raw status string from a request body.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusApproved, StatusActive, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", Validation(fmt.Sprintf("invalid status %q", raw))
}

// ParsePaymentStatus validates a raw payment status string.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch p := PaymentStatus(raw); p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return p, nil
	}
	return "", Validation(fmt.Sprintf("invalid payment status %q", raw))
}

// IsTerminal reports whether no further status transition is valid.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from → to appears in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a status transition request. The actor's role
// is checked first: a non-manager always gets an unauthorized error, before
// the transition table is consulted. On success the caller applies exactly
// the status field; on error nothing must change.
func CheckTransition(actor Actor, from, to Status) error {
	if !actor.IsManager() {
		return unauthorized("manager role required")
	}
	if !CanTransition(from, to) {
		if IsTerminal(from) {
			return illegal(fmt.Sprintf("rental is %s and cannot change status", from))
		}
		return illegal(fmt.Sprintf("cannot change status from %s to %s", from, to))
	}
	return nil
}

// CheckPaymentTransition validates a payment status request the same way:
// role first, then the unpaid → paid → refunded order.
func CheckPaymentTransition(actor Actor, from, to PaymentStatus) error {
	if !actor.IsManager() {
		return unauthorized("manager role required")
	}
	switch {
	case from == PaymentUnpaid && to == PaymentPaid:
		return nil
	case from == PaymentPaid && to == PaymentRefunded:
		return nil
	}
	return illegal(fmt.Sprintf("cannot change payment status from %s to %s", from, to))
}

// ReleasesStock reports whether a successful from → to transition returns
// the rental's reserved quantity to the product's availability. Cancelling
// an unfulfilled rental and completing an active one both hand the units
// back; completing does so because the equipment physically returns.
func ReleasesStock(from, to Status) bool {
	if to == StatusCancelled && (from == StatusPending || from == StatusApproved) {
		return true
	}
	return to == StatusCompleted && from == StatusActive
}
