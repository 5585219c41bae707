package fleet

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

func newTestCar(t *testing.T) *Car {
	t.Helper()
	car, err := NewCar("Toyota", "Camry", 2023, "white", decimal.NewFromInt(180000), 12000, "")
	require.NoError(t, err)
	car.ClearDomainEvents()
	return car
}

func TestNewCar(t *testing.T) {
	car, err := NewCar("Toyota", "Camry", 2023, "white", decimal.NewFromInt(180000), 12000, "well kept")
	require.NoError(t, err)
	assert.Equal(t, CarAvailable, car.Availability)
	assert.False(t, car.IsClaimed())
	assert.Equal(t, 1, car.Version)
	assert.Len(t, car.GetDomainEvents(), 1)
}

func TestNewCarValidation(t *testing.T) {
	cases := []struct {
		name    string
		brand   string
		model   string
		year    int
		price   decimal.Decimal
		mileage int
	}{
		{"empty brand", "", "Camry", 2023, decimal.NewFromInt(100), 0},
		{"empty model", "Toyota", "  ", 2023, decimal.NewFromInt(100), 0},
		{"bad year", "Toyota", "Camry", 1800, decimal.NewFromInt(100), 0},
		{"zero price", "Toyota", "Camry", 2023, decimal.Zero, 0},
		{"negative price", "Toyota", "Camry", 2023, decimal.NewFromInt(-5), 0},
		{"negative mileage", "Toyota", "Camry", 2023, decimal.NewFromInt(100), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCar(tc.brand, tc.model, tc.year, "white", tc.price, tc.mileage, "")
			require.Error(t, err)
			var derr *shared.DomainError
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, shared.CodeValidation, derr.Code)
		})
	}
}

func TestCarClaim(t *testing.T) {
	car := newTestCar(t)
	resID := uuid.New()

	require.NoError(t, car.Claim(workflow.KindReservation, resID))
	assert.Equal(t, CarReserved, car.Availability)
	assert.True(t, car.ClaimedBy(workflow.KindReservation, resID))
	assert.Len(t, car.GetDomainEvents(), 1)
}

func TestCarClaimConflict(t *testing.T) {
	car := newTestCar(t)
	first := uuid.New()
	require.NoError(t, car.Claim(workflow.KindReservation, first))

	err := car.Claim(workflow.KindPurchase, uuid.New())
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, shared.CodeConflict, derr.Code)

	// The original claim is untouched.
	assert.True(t, car.ClaimedBy(workflow.KindReservation, first))
}

func TestCarClaimIdempotent(t *testing.T) {
	car := newTestCar(t)
	resID := uuid.New()
	require.NoError(t, car.Claim(workflow.KindReservation, resID))
	car.ClearDomainEvents()

	require.NoError(t, car.Claim(workflow.KindReservation, resID))
	assert.Empty(t, car.GetDomainEvents(), "re-claim is a no-op")
}

func TestCarRelease(t *testing.T) {
	car := newTestCar(t)
	resID := uuid.New()
	require.NoError(t, car.Claim(workflow.KindReservation, resID))

	car.Release(workflow.KindReservation, resID)
	assert.Equal(t, CarAvailable, car.Availability)
	assert.False(t, car.IsClaimed())
}

func TestCarReleaseIsCheckAndSet(t *testing.T) {
	car := newTestCar(t)
	holder := uuid.New()
	require.NoError(t, car.Claim(workflow.KindReservation, holder))

	// A stale release from a different record must not drop the
	// holder's claim.
	car.Release(workflow.KindReservation, uuid.New())
	car.Release(workflow.KindPurchase, holder)
	assert.True(t, car.ClaimedBy(workflow.KindReservation, holder))
	assert.Equal(t, CarReserved, car.Availability)
}

func TestCarMarkSold(t *testing.T) {
	car := newTestCar(t)
	purID := uuid.New()
	require.NoError(t, car.Claim(workflow.KindPurchase, purID))

	require.NoError(t, car.MarkSold(workflow.KindPurchase, purID))
	assert.Equal(t, CarSold, car.Availability)

	// Selling is idempotent for the holder, conflicting for others.
	require.NoError(t, car.MarkSold(workflow.KindPurchase, purID))
	err := car.MarkSold(workflow.KindReservation, uuid.New())
	require.Error(t, err)
}

func TestCarMarkSoldRequiresClaim(t *testing.T) {
	car := newTestCar(t)

	err := car.MarkSold(workflow.KindPurchase, uuid.New())
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, shared.CodeConflict, derr.Code)
	assert.Equal(t, CarAvailable, car.Availability)
}

func TestCarClaimAfterSold(t *testing.T) {
	car := newTestCar(t)
	purID := uuid.New()
	require.NoError(t, car.Claim(workflow.KindPurchase, purID))
	require.NoError(t, car.MarkSold(workflow.KindPurchase, purID))

	err := car.Claim(workflow.KindReservation, uuid.New())
	require.Error(t, err)

	// Releasing a sold car keeps it sold.
	car.Release(workflow.KindPurchase, purID)
	assert.Equal(t, CarSold, car.Availability)
}

func TestCarUpdateDetails(t *testing.T) {
	car := newTestCar(t)

	require.NoError(t, car.UpdateDetails("Honda", "Accord", 2024, "black", decimal.NewFromInt(200000), 5000, "facelift"))
	assert.Equal(t, "Honda", car.Brand)
	assert.Equal(t, CarAvailable, car.Availability, "availability is not writable via update")

	err := car.UpdateDetails("", "Accord", 2024, "black", decimal.NewFromInt(200000), 5000, "")
	require.Error(t, err)
}
