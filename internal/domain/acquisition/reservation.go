package acquisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// ReservationSubtype distinguishes a full upfront reservation from a
// financed one. LOAN reservations charge the down payment and open a
// loan review once the payment is confirmed.
type ReservationSubtype string

const (
	SubtypeFull ReservationSubtype = "FULL"
	SubtypeLoan ReservationSubtype = "LOAN"
)

// IsValid checks if the subtype is valid
func (s ReservationSubtype) IsValid() bool {
	return s == SubtypeFull || s == SubtypeLoan
}

// Reservation is a claim-backed intent to acquire a car.
type Reservation struct {
	shared.BaseAggregateRoot
	CarID              uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	Subtype            ReservationSubtype `gorm:"size:10;not null"`
	Amount             decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	LoanYears          *int
	State              workflow.State `gorm:"size:20;not null;default:'CREATED';index"`
	CancellationReason *string        `gorm:"size:500"`
	ReservedAt         *time.Time
	AcquiredAt         *time.Time
	CancelledAt        *time.Time
}

// TableName returns the database table name
func (Reservation) TableName() string {
	return "reservations"
}

// NewReservation creates a reservation in CREATED. Amount is the sum
// charged at pay time: the car price for FULL, the financing down
// payment for LOAN.
func NewReservation(carID, customerID uuid.UUID, subtype ReservationSubtype, amount decimal.Decimal, loanYears *int) (*Reservation, error) {
	if carID == uuid.Nil {
		return nil, shared.NewValidationError("car is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if !subtype.IsValid() {
		return nil, shared.NewValidationError("subtype must be FULL or LOAN")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount must be positive")
	}
	if subtype == SubtypeLoan {
		if loanYears == nil || *loanYears < 1 || *loanYears > 5 {
			return nil, shared.NewValidationError("loan term must be between 1 and 5 years")
		}
	} else if loanYears != nil {
		return nil, shared.NewValidationError("loan term only applies to LOAN reservations")
	}

	r := &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CarID:             carID,
		CustomerID:        customerID,
		Subtype:           subtype,
		Amount:            amount,
		LoanYears:         loanYears,
		State:             workflow.ReservationCreated,
	}

	r.AddDomainEvent(NewRecordCreatedEvent(workflow.KindReservation, r.ID, carID, customerID))
	return r, nil
}

// IsOwnedBy reports whether the given actor is the reservation's customer.
func (r *Reservation) IsOwnedBy(actorID uuid.UUID) bool {
	return r.CustomerID == actorID
}

// Apply mutates the reservation according to an accepted decision and
// returns the intents to execute alongside it. Payment confirmation on
// a LOAN reservation additionally opens the loan review.
func (r *Reservation) Apply(d *workflow.Decision, actor workflow.Actor, reason string) ([]workflow.Intent, error) {
	if !d.Applied {
		return nil, nil
	}

	now := time.Now()
	r.State = d.To
	switch d.Event {
	case workflow.EventPaymentConfirmed:
		r.ReservedAt = &now
	case workflow.EventAcquire:
		r.AcquiredAt = &now
	case workflow.EventCancel, workflow.EventLoanRejected:
		r.CancelledAt = &now
		if reason != "" {
			r.CancellationReason = &reason
		}
	}

	intents := d.Intents
	if d.Event == workflow.EventPaymentConfirmed && r.Subtype == SubtypeLoan {
		intents = append(append([]workflow.Intent{}, intents...), workflow.IntentOpenLoanReview)
	}

	r.AddDomainEvent(NewTransitionAppliedEvent(d, r.ID, actor, reason))
	return intents, nil
}
