package acquisition

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// publishSink publishes collected events after a successful commit.
// Publication failures are logged, never propagated: the transaction
// already committed and the state change is the source of truth.
func publishSink(ctx context.Context, bus shared.EventPublisher, logger *zap.Logger, sink *eventSink) {
	if len(sink.events) == 0 {
		return
	}
	if err := bus.Publish(ctx, sink.events...); err != nil {
		logger.Warn("failed to publish domain events",
			zap.Int("count", len(sink.events)),
			zap.Error(err),
		)
	}
	sink.events = nil
}

// canViewRecord reports whether the actor may read a record owned by
// the given customer.
func canViewRecord(actor workflow.Actor, customerID uuid.UUID) bool {
	switch actor.Role {
	case workflow.RoleStaff, workflow.RoleAdmin, workflow.RoleSystem:
		return true
	default:
		return actor.ID == customerID
	}
}

// listFilter builds the repository filter for a listing query.
// Customers are forcibly scoped to their own records.
func listFilter(actor workflow.Actor, query *ListQuery) (shared.Filter, error) {
	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 && query.PageSize <= 100 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search
	if query.State != "" {
		filter.Filters["state"] = query.State
	}

	switch actor.Role {
	case workflow.RoleStaff, workflow.RoleAdmin:
		if query.CustomerID != "" {
			customerID, err := uuid.Parse(query.CustomerID)
			if err != nil {
				return filter, shared.NewValidationError("customer_id must be a UUID")
			}
			filter.Filters["customer_id"] = customerID
		}
	default:
		filter.Filters["customer_id"] = actor.ID
	}

	return filter, nil
}
