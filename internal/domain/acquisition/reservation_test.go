package acquisition

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/workflow"
)

var reservationAuth = workflow.NewAuthorizer(workflow.ReservationTable)

func newFullReservation(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation(uuid.New(), uuid.New(), SubtypeFull, decimal.NewFromInt(180000), nil)
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

func newLoanReservation(t *testing.T) *Reservation {
	t.Helper()
	years := 3
	r, err := NewReservation(uuid.New(), uuid.New(), SubtypeLoan, decimal.NewFromInt(36000), &years)
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

func TestNewReservationValidation(t *testing.T) {
	years := 3
	badYears := 7

	_, err := NewReservation(uuid.New(), uuid.New(), ReservationSubtype("LEASE"), decimal.NewFromInt(100), nil)
	assert.Error(t, err)

	_, err = NewReservation(uuid.New(), uuid.New(), SubtypeLoan, decimal.NewFromInt(100), nil)
	assert.Error(t, err, "loan without term")

	_, err = NewReservation(uuid.New(), uuid.New(), SubtypeLoan, decimal.NewFromInt(100), &badYears)
	assert.Error(t, err, "term out of range")

	_, err = NewReservation(uuid.New(), uuid.New(), SubtypeFull, decimal.NewFromInt(100), &years)
	assert.Error(t, err, "full with term")

	_, err = NewReservation(uuid.New(), uuid.New(), SubtypeFull, decimal.Zero, nil)
	assert.Error(t, err)
}

func TestReservationPayCarriesClaimAndPaymentIntents(t *testing.T) {
	r := newFullReservation(t)
	owner := workflow.Actor{ID: r.CustomerID, Role: workflow.RoleBuyer}

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventPay, Actor: owner, IsOwner: true,
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, owner, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.ReservationPaymentPending, r.State)
	assert.Equal(t, []workflow.Intent{workflow.IntentClaimCar, workflow.IntentOpenPayment}, intents)
}

func TestReservationPaymentConfirmedFullSubtype(t *testing.T) {
	r := newFullReservation(t)
	r.State = workflow.ReservationPaymentPending

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventPaymentConfirmed, Actor: workflow.SystemActor(),
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, workflow.SystemActor(), "")
	require.NoError(t, err)
	assert.Equal(t, workflow.ReservationReserved, r.State)
	assert.NotNil(t, r.ReservedAt)
	assert.Empty(t, intents, "full reservations open no loan review")
}

func TestReservationPaymentConfirmedLoanSubtypeOpensReview(t *testing.T) {
	r := newLoanReservation(t)
	r.State = workflow.ReservationPaymentPending

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventPaymentConfirmed, Actor: workflow.SystemActor(),
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, workflow.SystemActor(), "")
	require.NoError(t, err)
	assert.Equal(t, []workflow.Intent{workflow.IntentOpenLoanReview}, intents)
}

func TestReservationLoanRejectedCascade(t *testing.T) {
	r := newLoanReservation(t)
	r.State = workflow.ReservationReserved

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventLoanRejected, Actor: workflow.SystemActor(),
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, workflow.SystemActor(), "loan rejected")
	require.NoError(t, err)
	assert.Equal(t, workflow.ReservationCancelled, r.State)
	assert.Equal(t, []workflow.Intent{
		workflow.IntentRequestRefund,
		workflow.IntentReleaseCar,
		workflow.IntentCloseLoanReview,
	}, intents)
}

func TestReservationCancelFromCreatedHasNoIntents(t *testing.T) {
	r := newFullReservation(t)
	owner := workflow.Actor{ID: r.CustomerID, Role: workflow.RoleBuyer}

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventCancel, Actor: owner, IsOwner: true, Reason: "changed mind",
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, owner, "changed mind")
	require.NoError(t, err)
	assert.Equal(t, workflow.ReservationCancelled, r.State)
	assert.Empty(t, intents, "nothing was claimed yet")
}

func TestReservationCancelFromPaymentPendingReleases(t *testing.T) {
	r := newFullReservation(t)
	r.State = workflow.ReservationPaymentPending
	owner := workflow.Actor{ID: r.CustomerID, Role: workflow.RoleBuyer}

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventCancel, Actor: owner, IsOwner: true, Reason: "changed mind",
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, owner, "changed mind")
	require.NoError(t, err)
	assert.Contains(t, intents, workflow.IntentReleaseCar)
	assert.Contains(t, intents, workflow.IntentCancelPayment)
}

func TestReservationAcquire(t *testing.T) {
	r := newFullReservation(t)
	r.State = workflow.ReservationReserved
	staff := workflow.Actor{ID: uuid.New(), Role: workflow.RoleStaff}

	d, err := reservationAuth.Authorize(workflow.Request{
		Current: r.State, Event: workflow.EventAcquire, Actor: staff,
	})
	require.NoError(t, err)

	intents, err := r.Apply(d, staff, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.ReservationAcquired, r.State)
	assert.NotNil(t, r.AcquiredAt)
	assert.Contains(t, intents, workflow.IntentMarkCarSold)
}
