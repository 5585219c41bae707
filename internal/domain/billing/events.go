package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Event type constants
const (
	EventTypePaymentOpened       = "billing.payment.opened"
	EventTypePaymentTransitioned = "billing.payment.transitioned"
)

const aggregateTypePayment = "Payment"

// PaymentOpenedEvent is raised when a pending payment is created.
type PaymentOpenedEvent struct {
	shared.BaseDomainEvent
	SubjectKind workflow.Kind   `json:"subject_kind"`
	SubjectID   uuid.UUID       `json:"subject_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewPaymentOpenedEvent creates a new PaymentOpenedEvent
func NewPaymentOpenedEvent(p *Payment) *PaymentOpenedEvent {
	return &PaymentOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentOpened, aggregateTypePayment, p.ID),
		SubjectKind:     p.SubjectKind,
		SubjectID:       p.SubjectID,
		Amount:          p.Amount,
	}
}

// PaymentTransitionedEvent is raised for every applied payment transition.
type PaymentTransitionedEvent struct {
	shared.BaseDomainEvent
	Event     workflow.Event `json:"event"`
	FromState workflow.State `json:"from_state"`
	ToState   workflow.State `json:"to_state"`
	ActorRole workflow.Role  `json:"actor_role"`
	Reason    string         `json:"reason,omitempty"`
}

// NewPaymentTransitionedEvent creates a new PaymentTransitionedEvent
func NewPaymentTransitionedEvent(p *Payment, d *workflow.Decision, actor workflow.Actor, reason string) *PaymentTransitionedEvent {
	return &PaymentTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentTransitioned, aggregateTypePayment, p.ID),
		Event:           d.Event,
		FromState:       d.From,
		ToState:         d.To,
		ActorRole:       actor.Role,
		Reason:          reason,
	}
}
