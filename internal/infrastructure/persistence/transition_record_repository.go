package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/workflow"
)

// GormTransitionRecordRepository implements the append-only audit trail
// store using GORM. Rows are only ever inserted.
type GormTransitionRecordRepository struct {
	db *gorm.DB
}

// NewGormTransitionRecordRepository creates a new GormTransitionRecordRepository
func NewGormTransitionRecordRepository(db *gorm.DB) *GormTransitionRecordRepository {
	return &GormTransitionRecordRepository{db: db}
}

// Append inserts one audit row
func (r *GormTransitionRecordRepository) Append(ctx context.Context, record *acquisition.TransitionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByRecord returns the full trail of one record, oldest first
func (r *GormTransitionRecordRepository) FindByRecord(ctx context.Context, kind workflow.Kind, recordID uuid.UUID) ([]acquisition.TransitionRecord, error) {
	var records []acquisition.TransitionRecord
	if err := r.db.WithContext(ctx).
		Where("record_kind = ? AND record_id = ?", kind, recordID).
		Order("occurred_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Ensure GormTransitionRecordRepository implements TransitionRecordRepository
var _ acquisition.TransitionRecordRepository = (*GormTransitionRecordRepository)(nil)
