package acquisition

import (
	"context"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/fleet"
)

// TransactionalRepositories provides access to all repositories within
// a single database transaction. A transition, its audit row and every
// side-effect intent commit or roll back together.
type TransactionalRepositories interface {
	Bookings() acquisition.BookingRepository
	Reservations() acquisition.ReservationRepository
	Purchases() acquisition.PurchaseRepository
	Loans() acquisition.LoanRequirementRepository
	Payments() billing.PaymentRepository
	Cars() fleet.CarRepository
	Transitions() acquisition.TransitionRecordRepository
}

// TransactionScope executes a function within a database transaction.
type TransactionScope interface {
	// Execute runs fn inside a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
