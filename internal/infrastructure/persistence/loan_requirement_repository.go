package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
)

// GormLoanRequirementRepository implements LoanRequirementRepository using GORM
type GormLoanRequirementRepository struct {
	db *gorm.DB
}

// NewGormLoanRequirementRepository creates a new GormLoanRequirementRepository
func NewGormLoanRequirementRepository(db *gorm.DB) *GormLoanRequirementRepository {
	return &GormLoanRequirementRepository{db: db}
}

// FindByID finds a loan review by its ID, documents included
func (r *GormLoanRequirementRepository) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.LoanRequirement, error) {
	var loan acquisition.LoanRequirement
	if err := r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&loan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// FindByReservationID finds the loan review attached to a reservation
func (r *GormLoanRequirementRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*acquisition.LoanRequirement, error) {
	var loan acquisition.LoanRequirement
	if err := r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&loan, "reservation_id = ?", reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// Save creates or updates a loan review together with its documents
func (r *GormLoanRequirementRepository) Save(ctx context.Context, loan *acquisition.LoanRequirement) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// SaveWithLock saves with optimistic locking (checks version). New
// documents are appended in the same transaction; existing rows are
// never touched.
func (r *GormLoanRequirementRepository) SaveWithLock(ctx context.Context, loan *acquisition.LoanRequirement) error {
	result := r.db.WithContext(ctx).
		Model(loan).
		Where("id = ? AND version = ?", loan.ID, loan.Version).
		Updates(map[string]interface{}{
			"state":       loan.State,
			"review_note": loan.ReviewNote,
			"reviewed_by": loan.ReviewedBy,
			"reviewed_at": loan.ReviewedAt,
			"archived_at": loan.ArchivedAt,
			"version":     loan.Version + 1,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	loan.Version++

	for i := range loan.Documents {
		doc := &loan.Documents[i]
		if err := r.db.WithContext(ctx).
			Where("id = ?", doc.ID).
			FirstOrCreate(doc).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormLoanRequirementRepository implements LoanRequirementRepository
var _ acquisition.LoanRequirementRepository = (*GormLoanRequirementRepository)(nil)
