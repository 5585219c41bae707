package fleet

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

// AvailabilityState is the derived availability of a car. It is owned
// exclusively by the availability coordinator: AVAILABLE means no active
// claim, RESERVED means exactly one active claim, SOLD is terminal.
type AvailabilityState string

const (
	CarAvailable AvailabilityState = "AVAILABLE"
	CarReserved  AvailabilityState = "RESERVED"
	CarSold      AvailabilityState = "SOLD"
)

// IsValid checks if the availability state is valid
func (s AvailabilityState) IsValid() bool {
	switch s {
	case CarAvailable, CarReserved, CarSold:
		return true
	}
	return false
}

// String returns the string representation
func (s AvailabilityState) String() string {
	return string(s)
}

// Car is a vehicle in the dealership catalog. Availability and the
// claim pair are mutated only through Claim, Release and MarkSold.
type Car struct {
	shared.BaseAggregateRoot
	Brand        string            `gorm:"not null;size:100"`
	Model        string            `gorm:"not null;size:100"`
	Year         int               `gorm:"not null"`
	Color        string            `gorm:"size:50"`
	Price        decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Mileage      int               `gorm:"not null;default:0"`
	Description  string            `gorm:"type:text"`
	Availability AvailabilityState `gorm:"size:20;not null;default:'AVAILABLE';index"`
	ClaimKind    *workflow.Kind    `gorm:"size:20"`
	ClaimID      *uuid.UUID        `gorm:"type:uuid;index"`
}

// TableName returns the database table name
func (Car) TableName() string {
	return "cars"
}

// NewCar creates a catalog entry. New cars are always AVAILABLE.
func NewCar(brand, model string, year int, color string, price decimal.Decimal, mileage int, description string) (*Car, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, shared.NewValidationError("brand is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, shared.NewValidationError("model is required")
	}
	if year < 1900 {
		return nil, shared.NewValidationError("year is invalid")
	}
	if !price.IsPositive() {
		return nil, shared.NewValidationError("price must be positive")
	}
	if mileage < 0 {
		return nil, shared.NewValidationError("mileage cannot be negative")
	}

	car := &Car{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Brand:             strings.TrimSpace(brand),
		Model:             strings.TrimSpace(model),
		Year:              year,
		Color:             strings.TrimSpace(color),
		Price:             price,
		Mileage:           mileage,
		Description:       description,
		Availability:      CarAvailable,
	}

	car.AddDomainEvent(NewCarListedEvent(car))
	return car, nil
}

// UpdateDetails updates catalog fields. Availability is never writable
// through here.
func (c *Car) UpdateDetails(brand, model string, year int, color string, price decimal.Decimal, mileage int, description string) error {
	if strings.TrimSpace(brand) == "" {
		return shared.NewValidationError("brand is required")
	}
	if strings.TrimSpace(model) == "" {
		return shared.NewValidationError("model is required")
	}
	if !price.IsPositive() {
		return shared.NewValidationError("price must be positive")
	}
	if mileage < 0 {
		return shared.NewValidationError("mileage cannot be negative")
	}

	c.Brand = strings.TrimSpace(brand)
	c.Model = strings.TrimSpace(model)
	c.Year = year
	c.Color = strings.TrimSpace(color)
	c.Price = price
	c.Mileage = mileage
	c.Description = description
	return nil
}

// IsClaimed reports whether the car carries an active claim.
func (c *Car) IsClaimed() bool {
	return c.ClaimID != nil
}

// ClaimedBy reports whether the given record holds the active claim.
func (c *Car) ClaimedBy(kind workflow.Kind, recordID uuid.UUID) bool {
	return c.ClaimKind != nil && c.ClaimID != nil && *c.ClaimKind == kind && *c.ClaimID == recordID
}

// Claim places an exclusive claim on the car. Re-claiming by the same
// record is a no-op; a competing claim fails with CONFLICT.
func (c *Car) Claim(kind workflow.Kind, recordID uuid.UUID) error {
	if c.Availability == CarSold {
		return shared.NewConflictError(fmt.Sprintf("car %s is already sold", c.ID))
	}
	if c.IsClaimed() {
		if c.ClaimedBy(kind, recordID) {
			return nil
		}
		return shared.NewConflictError(fmt.Sprintf("car %s is already claimed", c.ID))
	}

	c.ClaimKind = &kind
	c.ClaimID = &recordID
	c.Availability = CarReserved
	c.AddDomainEvent(NewCarClaimedEvent(c, kind, recordID))
	return nil
}

// Release drops the claim held by the given record. A release by a
// record that does not hold the claim is a stale no-op, never an
// overwrite of someone else's claim.
func (c *Car) Release(kind workflow.Kind, recordID uuid.UUID) {
	if !c.ClaimedBy(kind, recordID) {
		return
	}
	if c.Availability == CarSold {
		return
	}

	c.ClaimKind = nil
	c.ClaimID = nil
	c.Availability = CarAvailable
	c.AddDomainEvent(NewCarReleasedEvent(c, kind, recordID))
}

// MarkSold finalizes the sale to the claiming record. Only the claim
// holder may sell; SOLD is terminal.
func (c *Car) MarkSold(kind workflow.Kind, recordID uuid.UUID) error {
	if c.Availability == CarSold {
		if c.ClaimedBy(kind, recordID) {
			return nil
		}
		return shared.NewConflictError(fmt.Sprintf("car %s is already sold", c.ID))
	}
	if !c.ClaimedBy(kind, recordID) {
		return shared.NewConflictError(fmt.Sprintf("car %s is not claimed by this record", c.ID))
	}

	c.Availability = CarSold
	c.AddDomainEvent(NewCarSoldEvent(c, kind, recordID))
	return nil
}
