package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// PaymentRepository defines the persistence interface for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*Payment, error)
	// FindBySubject returns the latest payment for a subject record,
	// or shared.ErrNotFound when none exists.
	FindBySubject(ctx context.Context, kind workflow.Kind, subjectID uuid.UUID) (*Payment, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Payment, error)
	Save(ctx context.Context, payment *Payment) error
	SaveWithLock(ctx context.Context, payment *Payment) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
