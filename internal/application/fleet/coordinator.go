package fleet

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/domain/fleet"
	"github.com/dealership/backend/internal/domain/workflow"
)

// AvailabilityCoordinator is the single writer of car availability.
// Every method takes the repository explicitly so callers can pass a
// transaction-scoped one: claim, release and sell always run inside
// the transition transaction, under a row lock on the car.
type AvailabilityCoordinator struct {
	logger *zap.Logger
}

// NewAvailabilityCoordinator creates a new AvailabilityCoordinator
func NewAvailabilityCoordinator(logger *zap.Logger) *AvailabilityCoordinator {
	return &AvailabilityCoordinator{logger: logger.Named("availability")}
}

// Claim places the record's exclusive claim on the car. A competing
// claim surfaces CONFLICT and rolls the enclosing transaction back.
func (c *AvailabilityCoordinator) Claim(ctx context.Context, cars fleet.CarRepository, kind workflow.Kind, recordID, carID uuid.UUID) (*fleet.Car, error) {
	car, err := cars.FindByIDForUpdate(ctx, carID)
	if err != nil {
		return nil, err
	}

	if err := car.Claim(kind, recordID); err != nil {
		c.logger.Info("car claim rejected",
			zap.String("car_id", carID.String()),
			zap.String("record_id", recordID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := cars.SaveWithLock(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// Release drops the record's claim. Releases by records that do not
// hold the claim are stale no-ops.
func (c *AvailabilityCoordinator) Release(ctx context.Context, cars fleet.CarRepository, kind workflow.Kind, recordID, carID uuid.UUID) (*fleet.Car, error) {
	car, err := cars.FindByIDForUpdate(ctx, carID)
	if err != nil {
		return nil, err
	}

	if !car.ClaimedBy(kind, recordID) {
		return car, nil
	}

	car.Release(kind, recordID)
	if err := cars.SaveWithLock(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

// MarkSold finalizes the sale to the claiming record.
func (c *AvailabilityCoordinator) MarkSold(ctx context.Context, cars fleet.CarRepository, kind workflow.Kind, recordID, carID uuid.UUID) (*fleet.Car, error) {
	car, err := cars.FindByIDForUpdate(ctx, carID)
	if err != nil {
		return nil, err
	}

	if err := car.MarkSold(kind, recordID); err != nil {
		return nil, err
	}

	if err := cars.SaveWithLock(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}
