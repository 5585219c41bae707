package workflow

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which transition table governs a record.
type Kind string

const (
	KindBooking         Kind = "BOOKING"
	KindReservation     Kind = "RESERVATION"
	KindPurchase        Kind = "PURCHASE"
	KindLoanRequirement Kind = "LOAN_REQUIREMENT"
	KindPayment         Kind = "PAYMENT"
)

// State is a workflow state name.
type State string

// Event is a workflow event name.
type Event string

// Role identifies who may fire an event.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"

	// RoleSystem is the internal actor for gateway callbacks and
	// cascade transitions. It is never issued to a client token.
	RoleSystem Role = "system"

	// RoleOwner is a pseudo-role resolved at authorization time against
	// the record's customer. It never appears in a token either.
	RoleOwner Role = "owner"
)

// ParseRole converts a token role claim into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBuyer, RoleSeller, RoleStaff, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the identity attempting a transition.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor returns the internal actor used for gateway-confirmed and
// cascade transitions.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: RoleSystem}
}

// Intent is a side effect an accepted transition requires. Intents are
// executed in the same database transaction as the state change.
type Intent string

const (
	IntentClaimCar            Intent = "CLAIM_CAR"
	IntentReleaseCar          Intent = "RELEASE_CAR"
	IntentMarkCarSold         Intent = "MARK_CAR_SOLD"
	IntentOpenPayment         Intent = "OPEN_PAYMENT"
	IntentCancelPayment       Intent = "CANCEL_PAYMENT"
	IntentOpenLoanReview      Intent = "OPEN_LOAN_REVIEW"
	IntentCloseLoanReview     Intent = "CLOSE_LOAN_REVIEW"
	IntentRequestRefund       Intent = "REQUEST_REFUND"
	IntentNotifyLoanApproved  Intent = "NOTIFY_LOAN_APPROVED"
	IntentNotifyLoanRejected  Intent = "NOTIFY_LOAN_REJECTED"
	IntentConfirmSubject      Intent = "CONFIRM_SUBJECT"
	IntentCancelSubject       Intent = "CANCEL_SUBJECT"
)

// Edge is one row of a transition table: from + event uniquely identify
// the edge, Roles gates who may fire it, Intents lists the side effects
// the transition carries.
type Edge struct {
	From          State
	Event         Event
	To            State
	Roles         []Role
	Intents       []Intent
	RequireReason bool
}

// Decision is the outcome of an authorized transition request.
// Applied is false when the record was already in the event's target
// state; such requests succeed but carry no intents.
type Decision struct {
	Kind    Kind
	Event   Event
	From    State
	To      State
	Intents []Intent
	Applied bool
}
