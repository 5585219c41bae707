package acquisition

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/workflow"
)

// TransitionRecord is one row of the append-only audit trail. A record
// is written in the same transaction as every accepted, applied
// transition; idempotent no-ops leave no trace.
type TransitionRecord struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RecordKind workflow.Kind   `gorm:"size:20;not null;index:idx_transition_records_record"`
	RecordID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_transition_records_record"`
	FromState  workflow.State  `gorm:"size:20;not null"`
	ToState    workflow.State  `gorm:"size:20;not null"`
	Event      workflow.Event  `gorm:"size:30;not null"`
	ActorID    uuid.UUID       `gorm:"type:uuid;not null"`
	ActorRole  workflow.Role   `gorm:"size:10;not null"`
	Reason     *string         `gorm:"size:500"`
	OccurredAt time.Time       `gorm:"not null;index"`
}

// TableName returns the database table name
func (TransitionRecord) TableName() string {
	return "transition_records"
}

// NewTransitionRecord builds an audit row for an applied decision.
func NewTransitionRecord(d *workflow.Decision, recordID uuid.UUID, actor workflow.Actor, reason string) *TransitionRecord {
	rec := &TransitionRecord{
		ID:         uuid.New(),
		RecordKind: d.Kind,
		RecordID:   recordID,
		FromState:  d.From,
		ToState:    d.To,
		Event:      d.Event,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OccurredAt: time.Now(),
	}
	if reason != "" {
		rec.Reason = &reason
	}
	return rec
}
