package acquisition

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Booking is a test-drive appointment for a car. Bookings move through
// PENDING, CONFIRMED, COMPLETED and CANCELLED and never claim the car.
type Booking struct {
	shared.BaseAggregateRoot
	CarID              uuid.UUID      `gorm:"type:uuid;not null;index"`
	CustomerID         uuid.UUID      `gorm:"type:uuid;not null;index"`
	ScheduledAt        time.Time      `gorm:"not null"`
	AssignedStaffID    *uuid.UUID     `gorm:"type:uuid;index"`
	State              workflow.State `gorm:"size:20;not null;default:'PENDING';index"`
	CancellationReason *string        `gorm:"size:500"`
	ConfirmedAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
}

// TableName returns the database table name
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a pending booking.
func NewBooking(carID, customerID uuid.UUID, scheduledAt time.Time) (*Booking, error) {
	if carID == uuid.Nil {
		return nil, shared.NewValidationError("car is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer is required")
	}
	if scheduledAt.IsZero() || scheduledAt.Before(time.Now()) {
		return nil, shared.NewValidationError("scheduled time must be in the future")
	}

	b := &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CarID:             carID,
		CustomerID:        customerID,
		ScheduledAt:       scheduledAt,
		State:             workflow.BookingPending,
	}

	b.AddDomainEvent(NewRecordCreatedEvent(workflow.KindBooking, b.ID, carID, customerID))
	return b, nil
}

// IsOwnedBy reports whether the given actor is the booking's customer.
func (b *Booking) IsOwnedBy(actorID uuid.UUID) bool {
	return b.CustomerID == actorID
}

// AssignStaff assigns a staff member to run the test drive.
func (b *Booking) AssignStaff(staffID uuid.UUID) error {
	if staffID == uuid.Nil {
		return shared.NewValidationError("staff member is required")
	}
	if b.State != workflow.BookingPending && b.State != workflow.BookingConfirmed {
		return shared.NewIllegalTransitionError("cannot assign staff to a closed booking")
	}
	b.AssignedStaffID = &staffID
	return nil
}

// Apply mutates the booking according to an accepted decision and
// returns the intents to execute alongside it.
func (b *Booking) Apply(d *workflow.Decision, actor workflow.Actor, reason string) ([]workflow.Intent, error) {
	if !d.Applied {
		return nil, nil
	}

	now := time.Now()
	b.State = d.To
	switch d.Event {
	case workflow.EventConfirm:
		b.ConfirmedAt = &now
	case workflow.EventComplete:
		b.CompletedAt = &now
	case workflow.EventCancel:
		b.CancelledAt = &now
		b.CancellationReason = &reason
	}

	b.AddDomainEvent(NewTransitionAppliedEvent(d, b.ID, actor, reason))
	return d.Intents, nil
}
