package acquisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Purchase is an outright acquisition of a car, paid in full.
type Purchase struct {
	shared.BaseAggregateRoot
	CarID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	State              workflow.State  `gorm:"size:20;not null;default:'CREATED';index"`
	CancellationReason *string         `gorm:"size:500"`
	CompletedAt        *time.Time
	CancelledAt        *time.Time
}

// TableName returns the database table name
func (Purchase) TableName() string {
	return "purchases"
}

// NewPurchase creates a purchase in CREATED. Amount is the car price
// at creation time.
func NewPurchase(carID, customerID uuid.UUID, amount decimal.Decimal) (*Purchase, error) {
	if carID == uuid.Nil {
		return nil, shared.NewValidationError("car is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount must be positive")
	}

	p := &Purchase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CarID:             carID,
		CustomerID:        customerID,
		Amount:            amount,
		State:             workflow.PurchaseCreated,
	}

	p.AddDomainEvent(NewRecordCreatedEvent(workflow.KindPurchase, p.ID, carID, customerID))
	return p, nil
}

// IsOwnedBy reports whether the given actor is the purchase's customer.
func (p *Purchase) IsOwnedBy(actorID uuid.UUID) bool {
	return p.CustomerID == actorID
}

// Apply mutates the purchase according to an accepted decision and
// returns the intents to execute alongside it.
func (p *Purchase) Apply(d *workflow.Decision, actor workflow.Actor, reason string) ([]workflow.Intent, error) {
	if !d.Applied {
		return nil, nil
	}

	now := time.Now()
	p.State = d.To
	switch d.Event {
	case workflow.EventPaymentConfirmed:
		p.CompletedAt = &now
	case workflow.EventCancel:
		p.CancelledAt = &now
		if reason != "" {
			p.CancellationReason = &reason
		}
	}

	p.AddDomainEvent(NewTransitionAppliedEvent(d, p.ID, actor, reason))
	return d.Intents, nil
}
