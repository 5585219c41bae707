package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
)

// GormBookingRepository implements BookingRepository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by its ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Booking, error) {
	var booking acquisition.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// FindAll finds bookings matching the filter
func (r *GormBookingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Booking, error) {
	var bookings []acquisition.Booking
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Booking{}), filter)
	query = applyPagination(query, filter, RecordSortFields)

	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Save creates or updates a booking
func (r *GormBookingRepository) Save(ctx context.Context, booking *acquisition.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormBookingRepository) SaveWithLock(ctx context.Context, booking *acquisition.Booking) error {
	result := r.db.WithContext(ctx).
		Model(booking).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(map[string]interface{}{
			"state":               booking.State,
			"assigned_staff_id":   booking.AssignedStaffID,
			"cancellation_reason": booking.CancellationReason,
			"confirmed_at":        booking.ConfirmedAt,
			"completed_at":        booking.CompletedAt,
			"cancelled_at":        booking.CancelledAt,
			"version":             booking.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	booking.Version++
	return nil
}

// Count counts bookings matching the filter
func (r *GormBookingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Booking{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormBookingRepository implements BookingRepository
var _ acquisition.BookingRepository = (*GormBookingRepository)(nil)
