package acquisition

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// BookingRepository defines the persistence interface for bookings
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Booking, error)
	Save(ctx context.Context, booking *Booking) error
	SaveWithLock(ctx context.Context, booking *Booking) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// ReservationRepository defines the persistence interface for reservations
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
	SaveWithLock(ctx context.Context, reservation *Reservation) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// PurchaseRepository defines the persistence interface for purchases
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Purchase, error)
	Save(ctx context.Context, purchase *Purchase) error
	SaveWithLock(ctx context.Context, purchase *Purchase) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// LoanRequirementRepository defines the persistence interface for loan reviews
type LoanRequirementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LoanRequirement, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*LoanRequirement, error)
	Save(ctx context.Context, loan *LoanRequirement) error
	SaveWithLock(ctx context.Context, loan *LoanRequirement) error
}

// TransitionRecordRepository is the append-only audit trail store.
type TransitionRecordRepository interface {
	Append(ctx context.Context, record *TransitionRecord) error
	FindByRecord(ctx context.Context, kind workflow.Kind, recordID uuid.UUID) ([]TransitionRecord, error)
}
