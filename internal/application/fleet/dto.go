package fleet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/fleet"
)

// CreateCarRequest is the payload for adding a car to the catalog.
type CreateCarRequest struct {
	Brand       string `json:"brand" binding:"required,max=100"`
	Model       string `json:"model" binding:"required,max=100"`
	Year        int    `json:"year" binding:"required,min=1900"`
	Color       string `json:"color" binding:"max=50"`
	Price       string `json:"price" binding:"required"`
	Mileage     int    `json:"mileage" binding:"min=0"`
	Description string `json:"description"`
}

// UpdateCarRequest is the payload for updating catalog fields.
// Availability is deliberately absent: it is derived state.
type UpdateCarRequest struct {
	Brand       string `json:"brand" binding:"required,max=100"`
	Model       string `json:"model" binding:"required,max=100"`
	Year        int    `json:"year" binding:"required,min=1900"`
	Color       string `json:"color" binding:"max=50"`
	Price       string `json:"price" binding:"required"`
	Mileage     int    `json:"mileage" binding:"min=0"`
	Description string `json:"description"`
}

// ListCarsQuery filters the catalog listing.
type ListCarsQuery struct {
	Availability string `form:"availability"`
	Brand        string `form:"brand"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// CarResponse is the API representation of a car.
type CarResponse struct {
	ID           uuid.UUID       `json:"id"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Color        string          `json:"color"`
	Price        decimal.Decimal `json:"price"`
	Mileage      int             `json:"mileage"`
	Description  string          `json:"description"`
	Availability string          `json:"availability"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToCarResponse converts a domain car to its API representation.
func ToCarResponse(car *fleet.Car) *CarResponse {
	return &CarResponse{
		ID:           car.ID,
		Brand:        car.Brand,
		Model:        car.Model,
		Year:         car.Year,
		Color:        car.Color,
		Price:        car.Price.Round(2),
		Mileage:      car.Mileage,
		Description:  car.Description,
		Availability: car.Availability.String(),
		Version:      car.Version,
		CreatedAt:    car.CreatedAt,
		UpdatedAt:    car.UpdatedAt,
	}
}
