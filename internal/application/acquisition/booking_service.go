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

// BookingService manages test-drive bookings.
type BookingService struct {
	scope    TransactionScope
	engine   *Engine
	bookings acquisition.BookingRepository
	cars     fleet.CarRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(scope TransactionScope, engine *Engine, bookings acquisition.BookingRepository, cars fleet.CarRepository, eventBus shared.EventPublisher, logger *zap.Logger) *BookingService {
	return &BookingService{
		scope:    scope,
		engine:   engine,
		bookings: bookings,
		cars:     cars,
		eventBus: eventBus,
		logger:   logger.Named("booking_service"),
	}
}

// CreateBooking schedules a test drive for the acting customer.
func (s *BookingService) CreateBooking(ctx context.Context, actor workflow.Actor, req *CreateBookingRequest) (*BookingResponse, error) {
	if _, err := s.cars.FindByID(ctx, req.CarID); err != nil {
		return nil, err
	}

	booking, err := acquisition.NewBooking(req.CarID, actor.ID, req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, booking); err != nil {
		return nil, err
	}

	s.publishFrom(ctx, booking)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("car_id", req.CarID.String()),
	)
	return ToBookingResponse(booking), nil
}

// ConfirmBooking moves a pending booking to CONFIRMED.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*BookingResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventConfirm, "")
}

// CompleteBooking closes a confirmed booking after the test drive.
func (s *BookingService) CompleteBooking(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*BookingResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventComplete, "")
}

// CancelBooking cancels a booking with a mandatory reason.
func (s *BookingService) CancelBooking(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*BookingResponse, error) {
	return s.applyEvent(ctx, actor, id, workflow.EventCancel, reason)
}

func (s *BookingService) applyEvent(ctx context.Context, actor workflow.Actor, id uuid.UUID, event workflow.Event, reason string) (*BookingResponse, error) {
	var resp *BookingResponse
	sink := &eventSink{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		booking, err := repos.Bookings().FindByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = s.engine.transitionBooking(ctx, repos, booking, event, actor, booking.IsOwnedBy(actor.ID), reason, sink)
		if err != nil {
			return err
		}

		resp = ToBookingResponse(booking)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishSink(ctx, s.eventBus, s.logger, sink)
	return resp, nil
}

// AssignStaff assigns a staff member to run the test drive.
func (s *BookingService) AssignStaff(ctx context.Context, actor workflow.Actor, id uuid.UUID, req *AssignStaffRequest) (*BookingResponse, error) {
	if actor.Role != workflow.RoleStaff && actor.Role != workflow.RoleAdmin {
		return nil, shared.ErrForbidden
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := booking.AssignStaff(req.StaffID); err != nil {
		return nil, err
	}
	if err := s.bookings.SaveWithLock(ctx, booking); err != nil {
		return nil, err
	}

	return ToBookingResponse(booking), nil
}

// GetBooking fetches one booking. Customers only see their own.
func (s *BookingService) GetBooking(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewRecord(actor, booking.CustomerID) {
		return nil, shared.ErrForbidden
	}
	return ToBookingResponse(booking), nil
}

// ListBookings returns a filtered, paginated listing. Customers are
// always scoped to their own records.
func (s *BookingService) ListBookings(ctx context.Context, actor workflow.Actor, query *ListQuery) (*shared.Paginated[BookingResponse], error) {
	filter, err := listFilter(actor, query)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.bookings.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, *ToBookingResponse(&bookings[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *BookingService) publishFrom(ctx context.Context, agg shared.AggregateRoot) {
	sink := &eventSink{}
	sink.collect(agg)
	publishSink(ctx, s.eventBus, s.logger, sink)
}
