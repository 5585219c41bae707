package acquisition

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// PurchaseService manages outright purchases.
type PurchaseService struct {
	scope     TransactionScope
	engine    *Engine
	purchases acquisition.PurchaseRepository
	cars      fleet.CarRepository
	eventBus  shared.EventPublisher
	logger    *zap.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(scope TransactionScope, engine *Engine, purchases acquisition.PurchaseRepository, cars fleet.CarRepository, eventBus shared.EventPublisher, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		scope:     scope,
		engine:    engine,
		purchases: purchases,
		cars:      cars,
		eventBus:  eventBus,
		logger:    logger.Named("purchase_service"),
	}
}

// CreatePurchase opens a purchase at the car's current price.
func (s *PurchaseService) CreatePurchase(ctx context.Context, actor workflow.Actor, req *CreatePurchaseRequest) (*PurchaseResponse, error) {
	car, err := s.cars.FindByID(ctx, req.CarID)
	if err != nil {
		return nil, err
	}
	switch car.Availability {
	case fleet.CarSold:
		return nil, shared.NewConflictError("car is already sold")
	case fleet.CarReserved:
		return nil, shared.NewConflictError("car is already reserved")
	}

	purchase, err := acquisition.NewPurchase(req.CarID, actor.ID, car.Price)
	if err != nil {
		return nil, err
	}

	if err := s.purchases.Save(ctx, purchase); err != nil {
		return nil, err
	}

	sink := &eventSink{}
	sink.collect(purchase)
	publishSink(ctx, s.eventBus, s.logger, sink)

	s.logger.Info("purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("car_id", req.CarID.String()),
	)
	return ToPurchaseResponse(purchase), nil
}

// PayPurchase fires the pay event: the car is claimed and a pending
// payment is opened in the gateway, all in one transaction.
func (s *PurchaseService) PayPurchase(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*PurchaseResponse, error) {
	var resp *PurchaseResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		purchase, err := repos.Purchases().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, res, err := s.engine.transitionPurchase(ctx, repos, purchase, workflow.EventPay, actor, purchase.IsOwnedBy(actor.ID), "", sink)
		if err != nil {
			return err
		}

		resp = ToPurchaseResponse(purchase)
		resp.PaymentURL = res.paymentURL
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// CancelPurchase cancels with a mandatory reason, releasing the car
// claim and the pending payment where they exist.
func (s *PurchaseService) CancelPurchase(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*PurchaseResponse, error) {
	var resp *PurchaseResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		purchase, err := repos.Purchases().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, _, err = s.engine.transitionPurchase(ctx, repos, purchase, workflow.EventCancel, actor, purchase.IsOwnedBy(actor.ID), reason, sink)
		if err != nil {
			return err
		}

		resp = ToPurchaseResponse(purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// GetPurchase fetches one purchase. Customers only see their own.
func (s *PurchaseService) GetPurchase(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*PurchaseResponse, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, purchase.CustomerID) {
		return nil, shared.ErrForbidden
	}
	return ToPurchaseResponse(purchase), nil
}

// ListPurchases returns a filtered, paginated listing.
func (s *PurchaseService) ListPurchases(ctx context.Context, actor workflow.Actor, query *ListQuery) (*shared.Paginated[PurchaseResponse], error) {
	filter, err := listFilter(actor, query)
	if err != nil {
		return nil, err
	}

	purchases, err := s.purchases.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.purchases.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		items = append(items, *ToPurchaseResponse(&purchases[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}
