package fleet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// Event type constants
const (
	EventTypeCarListed   = "fleet.car.listed"
	EventTypeCarClaimed  = "fleet.car.claimed"
	EventTypeCarReleased = "fleet.car.released"
	EventTypeCarSold     = "fleet.car.sold"
)

const aggregateTypeCar = "Car"

// CarListedEvent is raised when a car enters the catalog
type CarListedEvent struct {
	shared.BaseDomainEvent
	Brand string          `json:"brand"`
	Model string          `json:"model"`
	Price decimal.Decimal `json:"price"`
}

// NewCarListedEvent creates a new CarListedEvent
func NewCarListedEvent(car *Car) *CarListedEvent {
	return &CarListedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCarListed, aggregateTypeCar, car.ID),
		Brand:           car.Brand,
		Model:           car.Model,
		Price:           car.Price,
	}
}

// CarClaimedEvent is raised when a record claims the car
type CarClaimedEvent struct {
	shared.BaseDomainEvent
	ClaimKind workflow.Kind `json:"claim_kind"`
	ClaimID   uuid.UUID     `json:"claim_id"`
}

// NewCarClaimedEvent creates a new CarClaimedEvent
func NewCarClaimedEvent(car *Car, kind workflow.Kind, recordID uuid.UUID) *CarClaimedEvent {
	return &CarClaimedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCarClaimed, aggregateTypeCar, car.ID),
		ClaimKind:       kind,
		ClaimID:         recordID,
	}
}

// CarReleasedEvent is raised when a claim is dropped
type CarReleasedEvent struct {
	shared.BaseDomainEvent
	ClaimKind workflow.Kind `json:"claim_kind"`
	ClaimID   uuid.UUID     `json:"claim_id"`
}

// NewCarReleasedEvent creates a new CarReleasedEvent
func NewCarReleasedEvent(car *Car, kind workflow.Kind, recordID uuid.UUID) *CarReleasedEvent {
	return &CarReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCarReleased, aggregateTypeCar, car.ID),
		ClaimKind:       kind,
		ClaimID:         recordID,
	}
}

// CarSoldEvent is raised when the sale is finalized
type CarSoldEvent struct {
	shared.BaseDomainEvent
	ClaimKind workflow.Kind `json:"claim_kind"`
	ClaimID   uuid.UUID     `json:"claim_id"`
}

// NewCarSoldEvent creates a new CarSoldEvent
func NewCarSoldEvent(car *Car, kind workflow.Kind, recordID uuid.UUID) *CarSoldEvent {
	return &CarSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCarSold, aggregateTypeCar, car.ID),
		ClaimKind:       kind,
		ClaimID:         recordID,
	}
}
