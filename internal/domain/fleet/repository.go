package fleet

import (
	"context"

	"github.com/google/uuid"

	"github.com/dealership/backend/internal/domain/shared"
)

// CarRepository defines the persistence interface for cars
type CarRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)
	// FindByIDForUpdate loads the car under a row lock. Must be called
	// inside a transaction; the lock is held until commit or rollback.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Car, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Car, error)
	Save(ctx context.Context, car *Car) error
	SaveWithLock(ctx context.Context, car *Car) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
