package fleet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
)

// CarService manages the car catalog.
type CarService struct {
	cars     fleet.CarRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewCarService creates a new CarService
func NewCarService(cars fleet.CarRepository, eventBus shared.EventPublisher, logger *zap.Logger) *CarService {
	return &CarService{
		cars:     cars,
		eventBus: eventBus,
		logger:   logger.Named("car_service"),
	}
}

// CreateCar adds a car to the catalog.
func (s *CarService) CreateCar(ctx context.Context, req *CreateCarRequest) (*CarResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, shared.NewValidationError("price must be a decimal number")
	}

	car, err := fleet.NewCar(req.Brand, req.Model, req.Year, req.Color, price, req.Mileage, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.cars.Save(ctx, car); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, car)
	s.logger.Info("car listed",
		zap.String("car_id", car.ID.String()),
		zap.String("brand", car.Brand),
		zap.String("model", car.Model),
	)
	return ToCarResponse(car), nil
}

// UpdateCar updates catalog fields of an existing car.
func (s *CarService) UpdateCar(ctx context.Context, id uuid.UUID, req *UpdateCarRequest) (*CarResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, shared.NewValidationError("price must be a decimal number")
	}

	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := car.UpdateDetails(req.Brand, req.Model, req.Year, req.Color, price, req.Mileage, req.Description); err != nil {
		return nil, err
	}

	if err := s.cars.SaveWithLock(ctx, car); err != nil {
		return nil, err
	}

	return ToCarResponse(car), nil
}

// GetCar fetches one car.
func (s *CarService) GetCar(ctx context.Context, id uuid.UUID) (*CarResponse, error) {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCarResponse(car), nil
}

// ListCars returns a filtered, paginated catalog page.
func (s *CarService) ListCars(ctx context.Context, query *ListCarsQuery) (*shared.Paginated[CarResponse], error) {
	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 && query.PageSize <= 100 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search
	if query.Availability != "" {
		state := fleet.AvailabilityState(query.Availability)
		if !state.IsValid() {
			return nil, shared.NewValidationError("unknown availability state")
		}
		filter.Filters["availability"] = state
	}
	if query.Brand != "" {
		filter.Filters["brand"] = query.Brand
	}

	cars, err := s.cars.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.cars.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]CarResponse, 0, len(cars))
	for i := range cars {
		items = append(items, *ToCarResponse(&cars[i]))
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

func (s *CarService) publishEvents(ctx context.Context, car *fleet.Car) {
	events := car.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish car events", zap.Error(err))
	}
	car.ClearDomainEvents()
}
