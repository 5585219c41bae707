package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a purchase by its ID
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Purchase, error) {
	var purchase acquisition.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// FindAll finds purchases matching the filter
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]acquisition.Purchase, error) {
	var purchases []acquisition.Purchase
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Purchase{}), filter)
	query = applyPagination(query, filter, RecordSortFields)

	if err := query.Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// Save creates or updates a purchase
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *acquisition.Purchase) error {
	return r.db.WithContext(ctx).Save(purchase).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPurchaseRepository) SaveWithLock(ctx context.Context, purchase *acquisition.Purchase) error {
	result := r.db.WithContext(ctx).
		Model(purchase).
		Where("id = ? AND version = ?", purchase.ID, purchase.Version).
		Updates(map[string]interface{}{
			"state":               purchase.State,
			"cancellation_reason": purchase.CancellationReason,
			"completed_at":        purchase.CompletedAt,
			"cancelled_at":        purchase.CancelledAt,
			"version":             purchase.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	purchase.Version++
	return nil
}

// Count counts purchases matching the filter
func (r *GormPurchaseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyRecordFilters(r.db.WithContext(ctx).Model(&acquisition.Purchase{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormPurchaseRepository implements PurchaseRepository
var _ acquisition.PurchaseRepository = (*GormPurchaseRepository)(nil)
