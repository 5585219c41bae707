package persistence

import (
	"context"

	"gorm.io/gorm"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/fleet"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appacq.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Bookings returns the booking repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Bookings() acquisition.BookingRepository {
	return NewGormBookingRepository(r.tx)
}

// Reservations returns the reservation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Reservations() acquisition.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

// Purchases returns the purchase repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Purchases() acquisition.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

// Loans returns the loan review repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Loans() acquisition.LoanRequirementRepository {
	return NewGormLoanRequirementRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Cars returns the car repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Cars() fleet.CarRepository {
	return NewGormCarRepository(r.tx)
}

// Transitions returns the audit trail repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Transitions() acquisition.TransitionRecordRepository {
	return NewGormTransitionRecordRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appacq.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appacq.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
