package acquisition

import (
	"context"

	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// NotificationHandler turns workflow events into customer-facing
// notifications. The current delivery channel is the structured log;
// a mail or push sender can replace the emit method without touching
// the subscription wiring.
type NotificationHandler struct {
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger.Named("notifications"),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		acquisition.EventTypeTransitionApplied,
		fleet.EventTypeCarSold,
	}
}

// Handle processes a domain event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *acquisition.TransitionAppliedEvent:
		h.handleTransition(e)
	case *fleet.CarSoldEvent:
		h.emit("car sold",
			zap.String("car_id", e.AggregateID().String()),
			zap.String("claim_kind", string(e.ClaimKind)),
			zap.String("claim_id", e.ClaimID.String()),
		)
	}
	return nil
}

func (h *NotificationHandler) handleTransition(e *acquisition.TransitionAppliedEvent) {
	// Only verdicts and terminal outcomes warrant a notification.
	// Intermediate transitions stay in the audit trail.
	switch {
	case e.Kind == workflow.KindLoanRequirement && e.Event == workflow.EventApprove:
		h.emit("loan approved",
			zap.String("loan_id", e.AggregateID().String()),
		)
	case e.Kind == workflow.KindLoanRequirement && e.Event == workflow.EventReject:
		h.emit("loan rejected",
			zap.String("loan_id", e.AggregateID().String()),
			zap.String("reason", e.Reason),
		)
	case e.Event == workflow.EventCancel:
		h.emit("record cancelled",
			zap.String("kind", string(e.Kind)),
			zap.String("record_id", e.AggregateID().String()),
			zap.String("reason", e.Reason),
		)
	}
}

func (h *NotificationHandler) emit(subject string, fields ...zap.Field) {
	h.logger.Info("notification: "+subject, fields...)
}

// Ensure NotificationHandler implements EventHandler
var _ shared.EventHandler = (*NotificationHandler)(nil)
