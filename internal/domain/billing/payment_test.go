package billing

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

var paymentAuth = workflow.NewAuthorizer(workflow.PaymentTable)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	p, err := NewPayment(workflow.KindReservation, uuid.New(), uuid.New(), decimal.NewFromInt(36000))
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewPayment(t *testing.T) {
	p := newTestPayment(t)
	assert.Equal(t, workflow.PaymentPending, p.State)
	assert.NotEmpty(t, p.GatewayOrderID)
	assert.Nil(t, p.GatewayTxID)
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment(workflow.KindPayment, uuid.New(), uuid.New(), decimal.NewFromInt(1))
	assert.Error(t, err, "payment cannot be its own subject")

	_, err = NewPayment(workflow.KindPurchase, uuid.Nil, uuid.New(), decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = NewPayment(workflow.KindPurchase, uuid.New(), uuid.New(), decimal.Zero)
	assert.Error(t, err)
}

func TestPaymentMarkPaid(t *testing.T) {
	p := newTestPayment(t)

	d, err := paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventMarkPaid, Actor: workflow.SystemActor(),
	})
	require.NoError(t, err)

	p.RecordGatewayTransaction("tx-20260831-001")
	intents, err := p.Apply(d, workflow.SystemActor(), "")
	require.NoError(t, err)

	assert.Equal(t, workflow.PaymentPaid, p.State)
	assert.NotNil(t, p.PaidAt)
	require.NotNil(t, p.GatewayTxID)
	assert.Equal(t, "tx-20260831-001", *p.GatewayTxID)
	assert.Equal(t, []workflow.Intent{workflow.IntentConfirmSubject}, intents)
}

func TestPaymentDuplicateMarkPaidIsNoOp(t *testing.T) {
	p := newTestPayment(t)
	p.State = workflow.PaymentPaid

	d, err := paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventMarkPaid, Actor: workflow.SystemActor(),
	})
	require.NoError(t, err)
	assert.False(t, d.Applied)

	intents, err := p.Apply(d, workflow.SystemActor(), "")
	require.NoError(t, err)
	assert.Empty(t, intents)
	assert.Empty(t, p.GetDomainEvents())
}

func TestPaymentRefundFlow(t *testing.T) {
	p := newTestPayment(t)
	p.State = workflow.PaymentPaid
	owner := workflow.Actor{ID: p.CustomerID, Role: workflow.RoleBuyer}
	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}

	d, err := paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventRequestRefund, Actor: owner, IsOwner: true, Reason: "deal fell through",
	})
	require.NoError(t, err)
	_, err = p.Apply(d, owner, "deal fell through")
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentRefundRequested, p.State)
	require.NotNil(t, p.RefundReason)

	d, err = paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventApproveRefund, Actor: admin,
	})
	require.NoError(t, err)
	intents, err := p.Apply(d, admin, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.PaymentRefunded, p.State)
	assert.NotNil(t, p.RefundedAt)
	assert.Equal(t, []workflow.Intent{workflow.IntentCancelSubject}, intents)
}

func TestPaymentDenyRefundRevertsToPaid(t *testing.T) {
	p := newTestPayment(t)
	p.State = workflow.PaymentRefundRequested
	admin := workflow.Actor{ID: uuid.New(), Role: workflow.RoleAdmin}

	d, err := paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventDenyRefund, Actor: admin,
	})
	require.NoError(t, err)
	intents, err := p.Apply(d, admin, "")
	require.NoError(t, err)

	assert.Equal(t, workflow.PaymentPaid, p.State)
	assert.Nil(t, p.RefundRequestedAt)
	assert.Empty(t, intents)

	// A second refund request is still possible.
	_, err = paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventRequestRefund, Actor: admin, Reason: "retry",
	})
	assert.NoError(t, err)
}

func TestPaymentRefundRequestOnPendingIsIllegal(t *testing.T) {
	p := newTestPayment(t)

	_, err := paymentAuth.Authorize(workflow.Request{
		Current: p.State, Event: workflow.EventRequestRefund, Actor: workflow.SystemActor(), Reason: "x",
	})
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, shared.CodeIllegalTransition, derr.Code)
}
