package acquisition

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/acquisition"
	"github.com/dealership/backend/internal/domain/financing"
	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// ReservationService manages reservations and their loan guard.
type ReservationService struct {
	scope        TransactionScope
	engine       *Engine
	reservations acquisition.ReservationRepository
	cars         fleet.CarRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(scope TransactionScope, engine *Engine, reservations acquisition.ReservationRepository, cars fleet.CarRepository, eventBus shared.EventPublisher, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		scope:        scope,
		engine:       engine,
		reservations: reservations,
		cars:         cars,
		eventBus:     eventBus,
		logger:       logger.Named("reservation_service"),
	}
}

// CreateReservation opens a reservation for the acting customer. FULL
// reservations charge the car price; LOAN reservations charge the
// financing down payment for the requested term.
func (s *ReservationService) CreateReservation(ctx context.Context, actor workflow.Actor, req *CreateReservationRequest) (*ReservationResponse, error) {
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

	subtype := acquisition.ReservationSubtype(req.Subtype)
	amount := car.Price
	if subtype == acquisition.SubtypeLoan {
		if req.Years == nil {
			return nil, shared.NewValidationError("loan term is required for LOAN reservations")
		}
		quote, err := financing.QuoteLoan(car.Price, *req.Years)
		if err != nil {
			return nil, err
		}
		amount = quote.DownPayment
	}

	reservation, err := acquisition.NewReservation(req.CarID, actor.ID, subtype, amount, req.Years)
	if err != nil {
		return nil, err
	}

	if err := s.reservations.Save(ctx, reservation); err != nil {
		return nil, err
	}

	sink := &eventSink{}
	sink.collect(reservation)
	publishSink(ctx, s.eventBus, s.logger, sink)

	s.logger.Info("reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("car_id", req.CarID.String()),
		zap.String("subtype", req.Subtype),
	)
	return ToReservationResponse(reservation), nil
}

// PayReservation fires the pay event: the car is claimed and a pending
// payment is opened in the gateway, all in one transaction.
func (s *ReservationService) PayReservation(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ReservationResponse, error) {
	var resp *ReservationResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservation, err := repos.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, res, err := s.engine.transitionReservation(ctx, repos, reservation, workflow.EventPay, actor, reservation.IsOwnedBy(actor.ID), "", sink)
		if err != nil {
			return err
		}

		resp = ToReservationResponse(reservation)
		resp.PaymentURL = res.paymentURL
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// AcquireReservation hands the car over. LOAN reservations require an
// approved loan review first.
func (s *ReservationService) AcquireReservation(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ReservationResponse, error) {
	var resp *ReservationResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservation, err := repos.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if reservation.Subtype == acquisition.SubtypeLoan {
			loan, err := repos.Loans().FindByReservationID(ctx, reservation.ID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewValidationError("loan review has not been opened")
				}
				return err
			}
			if loan.State != workflow.LoanApproved {
				return shared.NewValidationError("loan must be approved before acquisition")
			}
		}

		_, _, err = s.engine.transitionReservation(ctx, repos, reservation, workflow.EventAcquire, actor, reservation.IsOwnedBy(actor.ID), "", sink)
		if err != nil {
			return err
		}

		resp = ToReservationResponse(reservation)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// CancelReservation cancels with a mandatory reason, releasing the car
// claim and the pending payment where they exist.
func (s *ReservationService) CancelReservation(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*ReservationResponse, error) {
	var resp *ReservationResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservation, err := repos.Reservations().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, _, err = s.engine.transitionReservation(ctx, repos, reservation, workflow.EventCancel, actor, reservation.IsOwnedBy(actor.ID), reason, sink)
		if err != nil {
			return err
		}

		resp = ToReservationResponse(reservation)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// GetReservation fetches one reservation. Customers only see their own.
func (s *ReservationService) GetReservation(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, reservation.CustomerID) {
		return nil, shared.ErrForbidden
	}
	return ToReservationResponse(reservation), nil
}

// ListReservations returns a filtered, paginated listing.
func (s *ReservationService) ListReservations(ctx context.Context, actor workflow.Actor, query *ListQuery) (*shared.Paginated[ReservationResponse], error) {
	filter, err := listFilter(actor, query)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.reservations.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ReservationResponse, 0, len(reservations))
	for i := range reservations {
		items = append(items, *ToReservationResponse(&reservations[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}
