package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
)

// GormCarRepository implements CarRepository using GORM
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByID finds a car by its ID
func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	var car fleet.Car
	if err := r.db.WithContext(ctx).First(&car, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &car, nil
}

// FindByIDForUpdate loads a car under a row lock. Row locking is a
// postgres feature; other dialects (sqlite in tests) fall back to a
// plain read.
func (r *GormCarRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fleet.Car, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var car fleet.Car
	if err := query.First(&car, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &car, nil
}

// FindAll finds cars matching the filter
func (r *GormCarRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fleet.Car, error) {
	var cars []fleet.Car
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&fleet.Car{}), filter)
	query = applyPagination(query, filter, CarSortFields)

	if err := query.Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// Save creates or updates a car
func (r *GormCarRepository) Save(ctx context.Context, car *fleet.Car) error {
	return r.db.WithContext(ctx).Save(car).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormCarRepository) SaveWithLock(ctx context.Context, car *fleet.Car) error {
	result := r.db.WithContext(ctx).
		Model(car).
		Where("id = ? AND version = ?", car.ID, car.Version).
		Updates(map[string]interface{}{
			"brand":        car.Brand,
			"model":        car.Model,
			"year":         car.Year,
			"color":        car.Color,
			"price":        car.Price,
			"mileage":      car.Mileage,
			"description":  car.Description,
			"availability": car.Availability,
			"claim_kind":   car.ClaimKind,
			"claim_id":     car.ClaimID,
			"version":      car.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	car.Version++
	return nil
}

// Count counts cars matching the filter
func (r *GormCarRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&fleet.Car{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormCarRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "availability":
			query = query.Where("availability = ?", value)
		case "brand":
			query = query.Where("brand = ?", value)
		case "max_price":
			query = query.Where("price <= ?", value)
		case "min_year":
			query = query.Where("year >= ?", value)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("brand ILIKE ? OR model ILIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormCarRepository implements CarRepository
var _ fleet.CarRepository = (*GormCarRepository)(nil)
