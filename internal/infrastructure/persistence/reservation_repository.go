package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Reservation, error) {
	var reservation acquisition.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// FindAll finds reservations matching the filter
func (r *GormReservationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Reservation, error) {
	var reservations []acquisition.Reservation
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Reservation{}), filter)
	query = applyPagination(query, filter, RecordSortFields)

	if err := query.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *acquisition.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormReservationRepository) SaveWithLock(ctx context.Context, reservation *acquisition.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(reservation).
		Where("id = ? AND version = ?", reservation.ID, reservation.Version).
		Updates(map[string]interface{}{
			"state":               reservation.State,
			"cancellation_reason": reservation.CancellationReason,
			"reserved_at":         reservation.ReservedAt,
			"acquired_at":         reservation.AcquiredAt,
			"cancelled_at":        reservation.CancelledAt,
			"version":             reservation.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	reservation.Version++
	return nil
}

// Count counts reservations matching the filter
func (r *GormReservationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Reservation{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormReservationRepository implements ReservationRepository
var _ acquisition.ReservationRepository = (*GormReservationRepository)(nil)
