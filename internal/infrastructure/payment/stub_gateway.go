package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/billing"
)

// StubGateway is a development stand-in for a real payment provider.
// It never talks to the network: payment URLs point at a fake checkout
// page and callbacks are verified against an HMAC of the payload.
type StubGateway struct {
	// BaseURL is the base URL for generated checkout pages
	BaseURL string
	// Secret is the HMAC key callbacks are signed with
	Secret string
}

// NewStubGateway creates a stub gateway with default settings
func NewStubGateway() *StubGateway {
	return &StubGateway{
		BaseURL: "https://pay.example.com",
		Secret:  "stub-gateway-secret",
	}
}

// stubCallbackPayload is the JSON body a stub callback carries
type stubCallbackPayload struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	PaidAt        string `json:"paid_at,omitempty"`
}

// Name identifies the gateway in logs and config
func (g *StubGateway) Name() string {
	return "stub"
}

// CreatePayment returns a fake checkout URL for the order
func (g *StubGateway) CreatePayment(ctx context.Context, req *billing.CreatePaymentRequest) (*billing.CreatePaymentResponse, error) {
	return &billing.CreatePaymentResponse{
		GatewayOrderID: req.OrderNumber,
		PaymentURL:     g.BaseURL + "/checkout/" + req.OrderNumber,
	}, nil
}

// CreateRefund acknowledges the refund immediately
func (g *StubGateway) CreateRefund(ctx context.Context, req *billing.RefundRequest) (*billing.RefundResponse, error) {
	now := time.Now()
	return &billing.RefundResponse{
		GatewayRefundID: "refund-" + req.OrderNumber,
		RefundedAt:      &now,
	}, nil
}

// VerifyCallback checks the HMAC signature and parses the JSON payload
func (g *StubGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*billing.PaymentCallback, error) {
	if !hmac.Equal([]byte(signature), []byte(g.Sign(payload))) {
		return nil, billing.ErrGatewayInvalidCallback
	}

	var body stubCallbackPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("stub gateway: failed to parse callback: %w", err)
	}

	callback := &billing.PaymentCallback{
		OrderNumber:          body.OrderNumber,
		GatewayTransactionID: body.TransactionID,
		Status:               billing.CallbackStatusFailed,
	}
	if body.Status == string(billing.CallbackStatusSuccess) {
		callback.Status = billing.CallbackStatusSuccess
	}

	if body.Amount != "" {
		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			return nil, fmt.Errorf("stub gateway: invalid amount: %w", err)
		}
		callback.Amount = amount
	}

	if body.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, body.PaidAt); err == nil {
			callback.PaidAt = &t
		}
	}

	return callback, nil
}

// CallbackResponse renders the acknowledgement body
func (g *StubGateway) CallbackResponse(success bool, message string) []byte {
	if success {
		return []byte("success")
	}
	return []byte("fail")
}

// Sign computes the HMAC signature for a callback payload. Exposed so
// development tooling can fabricate valid callbacks.
func (g *StubGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Ensure StubGateway implements PaymentGateway
var _ billing.PaymentGateway = (*StubGateway)(nil)
