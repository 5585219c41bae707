package acquisition

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Event type constants
const (
	EventTypeRecordCreated        = "acquisition.record.created"
	EventTypeTransitionApplied    = "acquisition.transition.applied"
	EventTypeLoanReviewOpened     = "acquisition.loan.review_opened"
	EventTypeLoanDocsSubmitted    = "acquisition.loan.documents_submitted"
)

// RecordCreatedEvent is raised when a booking, reservation or purchase
// enters the store.
type RecordCreatedEvent struct {
	shared.BaseDomainEvent
	Kind       workflow.Kind `json:"kind"`
	CarID      uuid.UUID     `json:"car_id"`
	CustomerID uuid.UUID     `json:"customer_id"`
}

// NewRecordCreatedEvent creates a new RecordCreatedEvent
func NewRecordCreatedEvent(kind workflow.Kind, recordID, carID, customerID uuid.UUID) *RecordCreatedEvent {
	return &RecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordCreated, aggregateType(kind), recordID),
		Kind:            kind,
		CarID:           carID,
		CustomerID:      customerID,
	}
}

// TransitionAppliedEvent is raised for every applied transition on any
// record kind.
type TransitionAppliedEvent struct {
	shared.BaseDomainEvent
	Kind      workflow.Kind  `json:"kind"`
	Event     workflow.Event `json:"event"`
	FromState workflow.State `json:"from_state"`
	ToState   workflow.State `json:"to_state"`
	ActorID   uuid.UUID      `json:"actor_id"`
	ActorRole workflow.Role  `json:"actor_role"`
	Reason    string         `json:"reason,omitempty"`
}

// NewTransitionAppliedEvent creates a new TransitionAppliedEvent
func NewTransitionAppliedEvent(d *workflow.Decision, recordID uuid.UUID, actor workflow.Actor, reason string) *TransitionAppliedEvent {
	return &TransitionAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransitionApplied, aggregateType(d.Kind), recordID),
		Kind:            d.Kind,
		Event:           d.Event,
		FromState:       d.From,
		ToState:         d.To,
		ActorID:         actor.ID,
		ActorRole:       actor.Role,
		Reason:          reason,
	}
}

// LoanReviewOpenedEvent is raised when a loan review opens.
type LoanReviewOpenedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID `json:"reservation_id"`
}

// NewLoanReviewOpenedEvent creates a new LoanReviewOpenedEvent
func NewLoanReviewOpenedEvent(l *LoanRequirement) *LoanReviewOpenedEvent {
	return &LoanReviewOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanReviewOpened, "LoanRequirement", l.ID),
		ReservationID:   l.ReservationID,
	}
}

// LoanDocumentsSubmittedEvent is raised when documents are appended to
// an open review.
type LoanDocumentsSubmittedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID `json:"reservation_id"`
	Count         int       `json:"count"`
}

// NewLoanDocumentsSubmittedEvent creates a new LoanDocumentsSubmittedEvent
func NewLoanDocumentsSubmittedEvent(l *LoanRequirement, count int) *LoanDocumentsSubmittedEvent {
	return &LoanDocumentsSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanDocsSubmitted, "LoanRequirement", l.ID),
		ReservationID:   l.ReservationID,
		Count:           count,
	}
}

func aggregateType(kind workflow.Kind) string {
	switch kind {
	case workflow.KindBooking:
		return "Booking"
	case workflow.KindReservation:
		return "Reservation"
	case workflow.KindPurchase:
		return "Purchase"
	case workflow.KindLoanRequirement:
		return "LoanRequirement"
	case workflow.KindPayment:
		return "Payment"
	default:
		return fmt.Sprintf("Unknown(%s)", strings.ToLower(string(kind)))
	}
}
