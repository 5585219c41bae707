package acquisition

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
)

var bookingAuth = workflow.NewAuthorizer(workflow.BookingTable)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(uuid.New(), uuid.New(), time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	b.ClearDomainEvents()
	return b
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(uuid.New(), uuid.New(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, workflow.BookingPending, b.State)
	assert.Len(t, b.GetDomainEvents(), 1)
}

func TestNewBookingValidation(t *testing.T) {
	_, err := NewBooking(uuid.Nil, uuid.New(), time.Now().Add(time.Hour))
	assert.Error(t, err)

	_, err = NewBooking(uuid.New(), uuid.Nil, time.Now().Add(time.Hour))
	assert.Error(t, err)

	_, err = NewBooking(uuid.New(), uuid.New(), time.Now().Add(-time.Hour))
	assert.Error(t, err)
}

func TestBookingConfirmAndComplete(t *testing.T) {
	b := newTestBooking(t)
	staff := workflow.Actor{ID: uuid.New(), Role: workflow.RoleStaff}

	d, err := bookingAuth.Authorize(workflow.Request{Current: b.State, Event: workflow.EventConfirm, Actor: staff})
	require.NoError(t, err)
	_, err = b.Apply(d, staff, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.BookingConfirmed, b.State)
	assert.NotNil(t, b.ConfirmedAt)

	d, err = bookingAuth.Authorize(workflow.Request{Current: b.State, Event: workflow.EventComplete, Actor: staff})
	require.NoError(t, err)
	_, err = b.Apply(d, staff, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.BookingCompleted, b.State)
	assert.NotNil(t, b.CompletedAt)
}

func TestBookingCancelRecordsReason(t *testing.T) {
	b := newTestBooking(t)
	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}

	d, err := bookingAuth.Authorize(workflow.Request{
		Current: b.State, Event: workflow.EventCancel, Actor: admin, Reason: "customer no-show",
	})
	require.NoError(t, err)
	_, err = b.Apply(d, admin, "customer no-show")
	require.NoError(t, err)

	assert.Equal(t, workflow.BookingCancelled, b.State)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "customer no-show", *b.CancellationReason)
}

func TestBookingCancelWithoutReasonFails(t *testing.T) {
	b := newTestBooking(t)
	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}

	_, err := bookingAuth.Authorize(workflow.Request{Current: b.State, Event: workflow.EventCancel, Actor: admin})
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, shared.CodeValidation, derr.Code)
	assert.Equal(t, workflow.BookingPending, b.State, "record must be untouched")
}

func TestBookingAssignStaff(t *testing.T) {
	b := newTestBooking(t)
	staffID := uuid.New()

	require.NoError(t, b.AssignStaff(staffID))
	require.NotNil(t, b.AssignedStaffID)
	assert.Equal(t, staffID, *b.AssignedStaffID)

	assert.Error(t, b.AssignStaff(uuid.Nil))

	// Closed bookings reject assignment.
	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}
	d, err := bookingAuth.Authorize(workflow.Request{
		Current: b.State, Event: workflow.EventCancel, Actor: admin, Reason: "duplicate",
	})
	require.NoError(t, err)
	_, err = b.Apply(d, admin, "duplicate")
	require.NoError(t, err)
	assert.Error(t, b.AssignStaff(uuid.New()))
}

func TestBookingApplyNoOpDecision(t *testing.T) {
	b := newTestBooking(t)
	d := &workflow.Decision{Kind: workflow.KindBooking, Applied: false}

	intents, err := b.Apply(d, workflow.SystemActor(), "")
	require.NoError(t, err)
	assert.Empty(t, intents)
	assert.Equal(t, workflow.BookingPending, b.State)
	assert.Empty(t, b.GetDomainEvents())
}
