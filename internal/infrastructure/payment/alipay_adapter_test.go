package payment

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealership/backend/internal/domain/billing"
)

func newTestAlipayGateway(t *testing.T) (*AlipayGateway, *rsa.PrivateKey) {
	t.Helper()

	// The "Alipay side" key pair signs notifications; the app key signs requests.
	appKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	alipayKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gateway, err := NewAlipayGateway(&AlipayConfig{
		AppID:           "2021000000000000",
		PrivateKey:      appKey,
		AlipayPublicKey: &alipayKey.PublicKey,
		IsSandbox:       true,
		SignType:        "RSA2",
		NotifyURL:       "https://dealer.example.com/api/v1/payments/callback",
		ReturnURL:       "https://dealer.example.com/orders",
	})
	require.NoError(t, err)

	return gateway, alipayKey
}

// signNotification signs form values the way Alipay does
func signNotification(t *testing.T, key *rsa.PrivateKey, values url.Values) string {
	t.Helper()

	params := make(map[string]string)
	for k := range values {
		if k != "sign" && k != "sign_type" {
			params[k] = values.Get(k)
		}
	}
	signStr := buildSignString(params)

	hash := sha256.Sum256([]byte(signStr))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(sig)
}

func TestAlipayGateway_CreatePayment(t *testing.T) {
	gateway, _ := newTestAlipayGateway(t)

	resp, err := gateway.CreatePayment(context.Background(), &billing.CreatePaymentRequest{
		OrderNumber: "RES-20260831-0001",
		Amount:      decimal.NewFromInt(56000),
		Subject:     "Reservation down payment",
	})

	require.NoError(t, err)
	assert.Equal(t, "RES-20260831-0001", resp.GatewayOrderID)
	assert.True(t, strings.HasPrefix(resp.PaymentURL, alipaySandboxGatewayURL))

	parsed, err := url.Parse(resp.PaymentURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "alipay.trade.page.pay", query.Get("method"))
	assert.Equal(t, "https://dealer.example.com/api/v1/payments/callback", query.Get("notify_url"))
	assert.NotEmpty(t, query.Get("sign"))
	assert.Contains(t, query.Get("biz_content"), `"total_amount":"56000.00"`)
}

func TestAlipayGateway_VerifyCallback(t *testing.T) {
	gateway, alipayKey := newTestAlipayGateway(t)

	makePayload := func(status string) ([]byte, string) {
		values := url.Values{}
		values.Set("notify_id", "notify-1")
		values.Set("app_id", "2021000000000000")
		values.Set("out_trade_no", "RES-20260831-0001")
		values.Set("trade_no", "alipay-tx-42")
		values.Set("trade_status", status)
		values.Set("total_amount", "56000.00")
		values.Set("gmt_payment", "2026-08-31 10:15:00")
		sig := signNotification(t, alipayKey, values)
		values.Set("sign", sig)
		values.Set("sign_type", "RSA2")
		return []byte(values.Encode()), sig
	}

	t.Run("accepts a correctly signed success notification", func(t *testing.T) {
		payload, sig := makePayload("TRADE_SUCCESS")

		callback, err := gateway.VerifyCallback(context.Background(), payload, sig)

		require.NoError(t, err)
		assert.Equal(t, "RES-20260831-0001", callback.OrderNumber)
		assert.Equal(t, "alipay-tx-42", callback.GatewayTransactionID)
		assert.Equal(t, billing.CallbackStatusSuccess, callback.Status)
		assert.True(t, callback.Amount.Equal(decimal.NewFromInt(56000)))
		require.NotNil(t, callback.PaidAt)
	})

	t.Run("reads signature from the payload when not passed separately", func(t *testing.T) {
		payload, _ := makePayload("TRADE_SUCCESS")

		callback, err := gateway.VerifyCallback(context.Background(), payload, "")

		require.NoError(t, err)
		assert.Equal(t, billing.CallbackStatusSuccess, callback.Status)
	})

	t.Run("rejects a tampered notification", func(t *testing.T) {
		payload, sig := makePayload("TRADE_SUCCESS")
		tampered := strings.Replace(string(payload), "56000.00", "1.00", 1)

		_, err := gateway.VerifyCallback(context.Background(), []byte(tampered), sig)

		assert.ErrorIs(t, err, billing.ErrGatewayInvalidCallback)
	})

	t.Run("maps non-success trade status to failed", func(t *testing.T) {
		payload, sig := makePayload("TRADE_CLOSED")

		callback, err := gateway.VerifyCallback(context.Background(), payload, sig)

		require.NoError(t, err)
		assert.Equal(t, billing.CallbackStatusFailed, callback.Status)
	})
}

func TestAlipayGateway_CallbackResponse(t *testing.T) {
	gateway, _ := newTestAlipayGateway(t)

	assert.Equal(t, []byte("success"), gateway.CallbackResponse(true, "ok"))
	assert.Equal(t, []byte("fail"), gateway.CallbackResponse(false, "unknown order"))
}

func TestMapAlipayTradeStatus(t *testing.T) {
	assert.Equal(t, billing.CallbackStatusSuccess, mapAlipayTradeStatus(alipayTradeStatusTradeSuccess))
	assert.Equal(t, billing.CallbackStatusSuccess, mapAlipayTradeStatus(alipayTradeStatusTradeFinished))
	assert.Equal(t, billing.CallbackStatusFailed, mapAlipayTradeStatus(alipayTradeStatusWaitBuyerPay))
	assert.Equal(t, billing.CallbackStatusFailed, mapAlipayTradeStatus(alipayTradeStatusTradeClosed))
	assert.Equal(t, billing.CallbackStatusFailed, mapAlipayTradeStatus("GARBAGE"))
}

func TestAlipayConfig_Validate(t *testing.T) {
	appKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	alipayKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	valid := func() *AlipayConfig {
		return &AlipayConfig{
			AppID:           "2021000000000000",
			PrivateKey:      appKey,
			AlipayPublicKey: &alipayKey.PublicKey,
			SignType:        "RSA2",
			NotifyURL:       "https://dealer.example.com/callback",
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing app ID", func(t *testing.T) {
		cfg := valid()
		cfg.AppID = ""
		assert.ErrorIs(t, cfg.Validate(), ErrAlipayMissingAppID)
	})

	t.Run("missing private key", func(t *testing.T) {
		cfg := valid()
		cfg.PrivateKey = nil
		assert.ErrorIs(t, cfg.Validate(), ErrAlipayMissingPrivateKey)
	})

	t.Run("missing notify URL", func(t *testing.T) {
		cfg := valid()
		cfg.NotifyURL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrAlipayMissingNotifyURL)
	})

	t.Run("unknown sign type", func(t *testing.T) {
		cfg := valid()
		cfg.SignType = "MD5"
		assert.ErrorIs(t, cfg.Validate(), ErrAlipayInvalidSignType)
	})

	t.Run("empty sign type defaults to RSA2", func(t *testing.T) {
		cfg := valid()
		cfg.SignType = ""
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "RSA2", cfg.SignType)
	})
}

func TestStubGateway(t *testing.T) {
	gateway := NewStubGateway()
	ctx := context.Background()

	t.Run("create payment returns checkout URL", func(t *testing.T) {
		resp, err := gateway.CreatePayment(ctx, &billing.CreatePaymentRequest{
			OrderNumber: "PUR-1",
			Amount:      decimal.NewFromInt(280000),
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/checkout/PUR-1", resp.PaymentURL)
	})

	t.Run("verify callback accepts signed payload", func(t *testing.T) {
		payload := []byte(`{"order_number":"PUR-1","transaction_id":"tx-1","status":"SUCCESS","amount":"280000"}`)

		callback, err := gateway.VerifyCallback(ctx, payload, gateway.Sign(payload))

		require.NoError(t, err)
		assert.Equal(t, "PUR-1", callback.OrderNumber)
		assert.Equal(t, billing.CallbackStatusSuccess, callback.Status)
		assert.True(t, callback.Amount.Equal(decimal.NewFromInt(280000)))
	})

	t.Run("verify callback rejects bad signature", func(t *testing.T) {
		payload := []byte(`{"order_number":"PUR-1","status":"SUCCESS"}`)

		_, err := gateway.VerifyCallback(ctx, payload, "bogus")

		assert.ErrorIs(t, err, billing.ErrGatewayInvalidCallback)
	})

	t.Run("refund is acknowledged immediately", func(t *testing.T) {
		resp, err := gateway.CreateRefund(ctx, &billing.RefundRequest{
			OrderNumber: "PUR-1",
			Amount:      decimal.NewFromInt(280000),
			Reason:      "deal fell through",
		})
		require.NoError(t, err)
		assert.Equal(t, "refund-PUR-1", resp.GatewayRefundID)
		require.NotNil(t, resp.RefundedAt)
	})
}
