package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dealership/backend/internal/interfaces/http/dto"
	"github.com/dealership/backend/tests/testutil"
)

// The service is never reached on these paths, so a nil one is fine.
func newPaymentHandlerForBinding() *PaymentHandler {
	return NewPaymentHandler(nil, zap.NewNop())
}

func TestCancelPaymentRequiresAuth(t *testing.T) {
	h := newPaymentHandlerForBinding()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments/x/cancel",
		map[string]string{"reason": "picked another car"})

	h.CancelPayment(req.Context)

	testutil.AssertError(t, req, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
}

func TestCancelPaymentRejectsMalformedID(t *testing.T) {
	h := newPaymentHandlerForBinding()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments/x/cancel",
		map[string]string{"reason": "picked another car"})
	req.SetActor(testutil.Buyer())
	req.SetParam("id", "not-a-uuid")

	h.CancelPayment(req.Context)

	testutil.AssertError(t, req, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestCancelPaymentRequiresReason(t *testing.T) {
	h := newPaymentHandlerForBinding()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments/x/cancel",
		map[string]string{})
	req.SetActor(testutil.Buyer())
	req.SetParam("id", uuid.NewString())

	h.CancelPayment(req.Context)

	testutil.AssertError(t, req, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestRequestRefundRequiresReason(t *testing.T) {
	h := newPaymentHandlerForBinding()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/payments/x/refund",
		map[string]string{})
	req.SetActor(testutil.Buyer())
	req.SetParam("id", uuid.NewString())

	h.RequestRefund(req.Context)

	testutil.AssertError(t, req, http.StatusBadRequest, dto.ErrCodeBadRequest)
}
