package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Payment tracks the money side of an acquisition record. Its subject
// is the booking, reservation or purchase being paid for.
type Payment struct {
	shared.BaseAggregateRoot
	SubjectKind       workflow.Kind   `gorm:"size:20;not null;index:idx_payments_subject"`
	SubjectID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_subject"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	State             workflow.State  `gorm:"size:20;not null;default:'PENDING';index"`
	GatewayOrderID    string          `gorm:"size:64;not null;uniqueIndex"`
	GatewayTxID       *string         `gorm:"size:128;index"`
	RefundReason      *string         `gorm:"size:500"`
	PaidAt            *time.Time
	RefundRequestedAt *time.Time
	RefundedAt        *time.Time
	CancelledAt       *time.Time
}

// TableName returns the database table name
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a pending payment for a subject record.
func NewPayment(subjectKind workflow.Kind, subjectID, customerID uuid.UUID, amount decimal.Decimal) (*Payment, error) {
	switch subjectKind {
	case workflow.KindBooking, workflow.KindReservation, workflow.KindPurchase:
	default:
		return nil, shared.NewValidationError(fmt.Sprintf("invalid payment subject kind %q", subjectKind))
	}
	if subjectID == uuid.Nil {
		return nil, shared.NewValidationError("payment subject is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount must be positive")
	}

	base := shared.NewBaseAggregateRoot()
	p := &Payment{
		BaseAggregateRoot: base,
		SubjectKind:       subjectKind,
		SubjectID:         subjectID,
		CustomerID:        customerID,
		Amount:            amount,
		State:             workflow.PaymentPending,
		GatewayOrderID:    generateOrderNumber(base.ID),
	}

	p.AddDomainEvent(NewPaymentOpenedEvent(p))
	return p, nil
}

// generateOrderNumber derives the order number handed to the gateway.
func generateOrderNumber(id uuid.UUID) string {
	return fmt.Sprintf("PAY-%d-%s", time.Now().Unix(), id.String()[:8])
}

// IsOwnedBy reports whether the given actor is the paying customer.
func (p *Payment) IsOwnedBy(actorID uuid.UUID) bool {
	return p.CustomerID == actorID
}

// RecordGatewayTransaction attaches the gateway transaction id reported
// by a successful callback.
func (p *Payment) RecordGatewayTransaction(txID string) {
	if txID == "" {
		return
	}
	p.GatewayTxID = &txID
}

// Apply mutates the payment according to an accepted decision and
// returns the intents to execute alongside it.
func (p *Payment) Apply(d *workflow.Decision, actor workflow.Actor, reason string) ([]workflow.Intent, error) {
	if !d.Applied {
		return nil, nil
	}

	now := time.Now()
	p.State = d.To
	switch d.Event {
	case workflow.EventMarkPaid:
		p.PaidAt = &now
	case workflow.EventRequestRefund:
		p.RefundRequestedAt = &now
		p.RefundReason = &reason
	case workflow.EventApproveRefund:
		p.RefundedAt = &now
	case workflow.EventDenyRefund:
		p.RefundRequestedAt = nil
	case workflow.EventCancel:
		p.CancelledAt = &now
	}

	p.AddDomainEvent(NewPaymentTransitionedEvent(p, d, actor, reason))
	return d.Intents, nil
}
