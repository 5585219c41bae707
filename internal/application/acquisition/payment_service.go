package acquisition

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// PaymentService manages the payment/refund sub-workflow, including the
// asynchronous gateway callback that confirms payments.
type PaymentService struct {
	scope       TransactionScope
	engine      *Engine
	payments    billing.PaymentRepository
	gateway     billing.PaymentGateway
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, engine *Engine, payments billing.PaymentRepository, gateway billing.PaymentGateway, idempotency shared.IdempotencyStore, idemConfig shared.IdempotencyConfig, eventBus shared.EventPublisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		scope:       scope,
		engine:      engine,
		payments:    payments,
		gateway:     gateway,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		eventBus:    eventBus,
		logger:      logger.Named("payment_service"),
	}
}

// GetPayment fetches one payment. Customers only see their own.
func (s *PaymentService) GetPayment(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, payment.CustomerID) {
		return nil, shared.ErrForbidden
	}
	return ToPaymentResponse(payment), nil
}

// ListPayments returns a filtered, paginated listing.
func (s *PaymentService) ListPayments(ctx context.Context, actor workflow.Actor, query *ListQuery) (*shared.Paginated[PaymentResponse], error) {
	filter, err := listFilter(actor, query)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.payments.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, *ToPaymentResponse(&payments[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// CancelPayment voids a payment that has not been paid yet. The owning
// record is untouched; cancelling the record itself is a separate
// transition that releases the claim.
func (s *PaymentService) CancelPayment(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*PaymentResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventCancel, reason)
}

// RequestRefund asks for money back on a paid payment. The decision
// stays with an admin; the payment moves to REFUND_REQUESTED.
func (s *PaymentService) RequestRefund(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*PaymentResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventRequestRefund, reason)
}

// ApproveRefund executes the refund at the gateway and cancels the
// owning record in the same transaction. A gateway failure rolls
// everything back.
func (s *PaymentService) ApproveRefund(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*PaymentResponse, error) {
	var resp *PaymentResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if payment.State == workflow.PaymentRefundRequested {
			reason := "requested refund"
			if payment.RefundReason != nil {
				reason = *payment.RefundReason
			}
			txID := ""
			if payment.GatewayTxID != nil {
				txID = *payment.GatewayTxID
			}
			if _, err := s.gateway.CreateRefund(ctx, &billing.RefundRequest{
				OrderNumber:          payment.GatewayOrderID,
				GatewayTransactionID: txID,
				Amount:               payment.Amount,
				Reason:               reason,
			}); err != nil {
				s.logger.Error("payment gateway refund failed",
					zap.String("order_number", payment.GatewayOrderID),
					zap.Error(err),
				)
				return shared.NewUpstreamFailureError("payment gateway is unavailable")
			}
		}

		_, err = s.engine.transitionPayment(ctx, repos, payment, workflow.EventApproveRefund, actor, payment.IsOwnedBy(actor.ID), "", sink)
		if err != nil {
			return err
		}

		resp = ToPaymentResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// DenyRefund reverts a refund request; the payment returns to PAID.
func (s *PaymentService) DenyRefund(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*PaymentResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventDenyRefund, "")
}

func (s *PaymentService) applyEvent(ctx context.Context, actor workflow.Actor, id uuid.UUID, event workflow.Event, reason string) (*PaymentResponse, error) {
	var resp *PaymentResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = s.engine.transitionPayment(ctx, repos, payment, event, actor, payment.IsOwnedBy(actor.ID), reason, sink)
		if err != nil {
			return err
		}

		resp = ToPaymentResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// HandleCallback processes an asynchronous payment notification from
// the gateway. The returned bytes are the acknowledgement body the
// gateway expects. Duplicate notifications for the same gateway
// transaction are acknowledged without reprocessing.
func (s *PaymentService) HandleCallback(ctx context.Context, payload []byte, signature string) ([]byte, error) {
	callback, err := s.gateway.VerifyCallback(ctx, payload, signature)
	if err != nil {
		s.logger.Warn("rejected payment callback", zap.Error(err))
		return s.gateway.CallbackResponse(false, "invalid signature"), err
	}

	if callback.Status != billing.CallbackStatusSuccess {
		s.logger.Info("ignoring non-success payment callback",
			zap.String("order_number", callback.OrderNumber),
			zap.String("status", string(callback.Status)),
		)
		return s.gateway.CallbackResponse(true, "ignored"), nil
	}

	callbackKey := "payment_callback:" + callback.GatewayTransactionID
	if s.idemConfig.Enabled {
		processed, err := s.idempotency.IsProcessed(ctx, callbackKey)
		if err != nil {
			s.logger.Warn("idempotency check failed, processing anyway",
				zap.String("order_number", callback.OrderNumber),
				zap.Error(err),
			)
		} else if processed {
			return s.gateway.CallbackResponse(true, "already processed"), nil
		}
	}

	sink := &eventSink{}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByGatewayOrderID(ctx, callback.OrderNumber)
		if err != nil {
			return err
		}

		payment.RecordGatewayTransaction(callback.GatewayTransactionID)

		_, err = s.engine.transitionPayment(ctx, repos, payment, workflow.EventMarkPaid, workflow.SystemActor(), false, "", sink)
		return err
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("payment callback for unknown order",
				zap.String("order_number", callback.OrderNumber))
			return s.gateway.CallbackResponse(false, "unknown order"), err
		}
		s.logger.Error("failed to process payment callback",
			zap.String("order_number", callback.OrderNumber),
			zap.Error(err),
		)
		return s.gateway.CallbackResponse(false, "processing failed"), err
	}

	if s.idemConfig.Enabled {
		if _, err := s.idempotency.MarkProcessed(ctx, callbackKey, s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to mark callback processed",
				zap.String("order_number", callback.OrderNumber),
				zap.Error(err),
			)
		}
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	s.logger.Info("payment confirmed",
		zap.String("order_number", callback.OrderNumber),
		zap.String("gateway_tx_id", callback.GatewayTransactionID),
	)
	return s.gateway.CallbackResponse(true, "ok"), nil
}
