package acquisition

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/financing"
	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/shared"
)

// FinancingService computes loan quotes for listed cars or raw prices.
type FinancingService struct {
	cars   fleet.CarRepository
	logger *zap.Logger
}

// NewFinancingService creates a new FinancingService
func NewFinancingService(cars fleet.CarRepository, logger *zap.Logger) *FinancingService {
	return &FinancingService{
		cars:   cars,
		logger: logger.Named("financing_service"),
	}
}

// QuoteForCar computes a financing quote against a listed car's price.
func (s *FinancingService) QuoteForCar(ctx context.Context, carID string, years int) (*QuoteResponse, error) {
	id, err := uuid.Parse(carID)
	if err != nil {
		return nil, shared.NewValidationError("car id must be a UUID")
	}
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	quote, err := financing.QuoteLoan(car.Price, years)
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(quote), nil
}

// QuoteForPrice computes a financing quote for an arbitrary price.
func (s *FinancingService) QuoteForPrice(ctx context.Context, price string, years int) (*QuoteResponse, error) {
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, shared.NewValidationError("price must be a decimal number")
	}

	quote, err := financing.QuoteLoan(amount, years)
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(quote), nil
}
