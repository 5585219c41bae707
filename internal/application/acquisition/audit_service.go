package acquisition

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// AuditService exposes the append-only transition trail to reviewers.
type AuditService struct {
	transitions acquisition.TransitionRecordRepository
	logger      *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(transitions acquisition.TransitionRecordRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		transitions: transitions,
		logger:      logger.Named("audit_service"),
	}
}

// History returns the transition trail of one record, oldest first.
// Staff and admins only.
func (s *AuditService) History(ctx context.Context, actor workflow.Actor, kind workflow.Kind, recordID uuid.UUID) ([]TransitionRecordResponse, error) {
	if actor.Role != workflow.RoleStaff && actor.Role != workflow.RoleAdmin {
		return nil, shared.ErrForbidden
	}
	if _, ok := workflow.TableFor(kind); !ok {
		return nil, shared.NewValidationError("unknown record kind")
	}

	records, err := s.transitions.FindByRecord(ctx, kind, recordID)
	if err != nil {
		return nil, err
	}

	items := make([]TransitionRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, *ToTransitionRecordResponse(&records[i]))
	}
	return items, nil
}
