package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway errors. Adapters translate transport failures into these;
// services map them onto the UPSTREAM_FAILURE taxonomy code.
var (
	ErrGatewayUnavailable     = errors.New("gateway: temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("gateway: request failed")
	ErrGatewayInvalidCallback = errors.New("gateway: invalid callback signature")
)

// CallbackStatus is the payment outcome reported by the gateway.
type CallbackStatus string

const (
	CallbackStatusSuccess CallbackStatus = "SUCCESS"
	CallbackStatusFailed  CallbackStatus = "FAILED"
)

// CreatePaymentRequest asks the gateway to open a payment order.
type CreatePaymentRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Subject     string
	NotifyURL   string
}

// CreatePaymentResponse is the gateway's answer to an opened order.
type CreatePaymentResponse struct {
	GatewayOrderID string
	PaymentURL     string
	ExpireTime     time.Time
}

// RefundRequest asks the gateway to return money on a paid order.
type RefundRequest struct {
	OrderNumber          string
	GatewayTransactionID string
	Amount               decimal.Decimal
	Reason               string
}

// RefundResponse is the gateway's answer to a refund request.
type RefundResponse struct {
	GatewayRefundID string
	RefundedAt      *time.Time
}

// PaymentCallback is a verified payment notification from the gateway.
type PaymentCallback struct {
	OrderNumber          string
	GatewayTransactionID string
	Status               CallbackStatus
	Amount               decimal.Decimal
	PaidAt               *time.Time
}

// PaymentGateway is the port to the external payment provider. The
// concrete adapter lives in the infrastructure layer.
type PaymentGateway interface {
	// Name identifies the gateway in logs and config.
	Name() string

	// CreatePayment opens a payment order in the gateway and returns
	// the URL the customer completes the payment at.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)

	// CreateRefund initiates a refund for a completed payment.
	CreateRefund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)

	// VerifyCallback verifies a callback's signature and parses it.
	// Returns ErrGatewayInvalidCallback when the signature is wrong.
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*PaymentCallback, error)

	// CallbackResponse renders the acknowledgement body the gateway
	// expects after a processed callback.
	CallbackResponse(success bool, message string) []byte
}
