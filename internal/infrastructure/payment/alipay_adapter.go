package payment

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealership/backend/internal/domain/billing"
)

const (
	alipayGatewayURL        = "https://openapi.alipay.com/gateway.do"
	alipaySandboxGatewayURL = "https://openapi-sandbox.dl.alipaydev.com/gateway.do"
	alipayFormat            = "JSON"
	alipayCharset           = "utf-8"
	alipayVersion           = "1.0"
	alipayTimeLayout        = "2006-01-02 15:04:05"
)

// AlipayGateway implements PaymentGateway using the Alipay Open Platform
// page-pay flow. The customer is redirected to the returned payment URL
// and Alipay notifies us on the configured callback endpoint.
type AlipayGateway struct {
	config     *AlipayConfig
	httpClient *http.Client
}

// NewAlipayGateway creates a new Alipay gateway adapter
func NewAlipayGateway(config *AlipayConfig) (*AlipayGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &AlipayGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name identifies the gateway in logs and config
func (a *AlipayGateway) Name() string {
	return "alipay"
}

// CreatePayment creates a payment order in Alipay and returns the page
// payment URL the customer completes the payment at
func (a *AlipayGateway) CreatePayment(ctx context.Context, req *billing.CreatePaymentRequest) (*billing.CreatePaymentResponse, error) {
	bizContent := alipayBizContent{
		OutTradeNo:  req.OrderNumber,
		ProductCode: alipayProductCodeFastInstantTradePay,
		TotalAmount: req.Amount.StringFixed(2),
		Subject:     req.Subject,
	}

	params := a.buildCommonParams(alipayMethodPagePay)

	if req.NotifyURL != "" {
		params["notify_url"] = req.NotifyURL
	} else {
		params["notify_url"] = a.config.NotifyURL
	}
	if a.config.ReturnURL != "" {
		params["return_url"] = a.config.ReturnURL
	}

	bizContentBytes, err := json.Marshal(bizContent)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to marshal biz_content: %w", err)
	}
	params["biz_content"] = string(bizContentBytes)

	sign, err := a.sign(params)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to sign request: %w", err)
	}
	params["sign"] = sign

	return &billing.CreatePaymentResponse{
		GatewayOrderID: req.OrderNumber, // Alipay uses our order number as reference
		PaymentURL:     a.buildPaymentURL(params),
	}, nil
}

// CreateRefund initiates a synchronous refund for a completed payment
func (a *AlipayGateway) CreateRefund(ctx context.Context, req *billing.RefundRequest) (*billing.RefundResponse, error) {
	refundNo := "refund-" + req.OrderNumber

	bizContent := alipayBizContent{
		OutTradeNo:   req.OrderNumber,
		RefundAmount: req.Amount.StringFixed(2),
		OutRequestNo: refundNo,
	}
	if req.GatewayTransactionID != "" {
		bizContent.TradeNo = req.GatewayTransactionID
	}
	if req.Reason != "" {
		bizContent.RefundReason = req.Reason
	}

	params := a.buildCommonParams(alipayMethodRefund)

	bizContentBytes, err := json.Marshal(bizContent)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to marshal biz_content: %w", err)
	}
	params["biz_content"] = string(bizContentBytes)

	sign, err := a.sign(params)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to sign request: %w", err)
	}
	params["sign"] = sign

	respBody, err := a.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var refundResp alipayTradeRefundResponse
	if err := json.Unmarshal(respBody, &refundResp); err != nil {
		return nil, fmt.Errorf("alipay: failed to parse response: %w", err)
	}

	if !refundResp.Response.IsSuccess() {
		return nil, fmt.Errorf("%w: %s - %s", billing.ErrGatewayRequestFailed,
			refundResp.Response.SubCode, refundResp.Response.SubMsg)
	}

	response := &billing.RefundResponse{
		GatewayRefundID: refundNo, // Alipay uses out_request_no as refund ID
	}
	if refundResp.Response.GmtRefundPay != "" {
		if t, err := time.Parse(alipayTimeLayout, refundResp.Response.GmtRefundPay); err == nil {
			response.RefundedAt = &t
		}
	}

	return response, nil
}

// VerifyCallback verifies and parses a payment notification
func (a *AlipayGateway) VerifyCallback(ctx context.Context, payload []byte, signature string) (*billing.PaymentCallback, error) {
	// Alipay sends notifications as URL-encoded form data
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to parse notification: %w", err)
	}

	if signature == "" {
		signature = values.Get("sign")
	}

	if !a.verifySign(values, signature) {
		return nil, billing.ErrGatewayInvalidCallback
	}

	notification := parseAlipayNotification(values)

	callback := &billing.PaymentCallback{
		OrderNumber:          notification.OutTradeNo,
		GatewayTransactionID: notification.TradeNo,
		Status:               mapAlipayTradeStatus(notification.TradeStatus),
	}

	if notification.TotalAmount != "" {
		amount, err := decimal.NewFromString(notification.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("alipay: invalid total_amount: %w", err)
		}
		callback.Amount = amount
	}

	if notification.GmtPayment != "" {
		if t, err := time.Parse(alipayTimeLayout, notification.GmtPayment); err == nil {
			callback.PaidAt = &t
		}
	}

	return callback, nil
}

// CallbackResponse renders the acknowledgement body Alipay expects
func (a *AlipayGateway) CallbackResponse(success bool, message string) []byte {
	if success {
		return []byte("success")
	}
	return []byte("fail")
}

// buildCommonParams builds common parameters for API requests
func (a *AlipayGateway) buildCommonParams(method string) map[string]string {
	return map[string]string{
		"app_id":    a.config.AppID,
		"method":    method,
		"format":    alipayFormat,
		"charset":   alipayCharset,
		"sign_type": a.config.SignType,
		"timestamp": time.Now().Format(alipayTimeLayout),
		"version":   alipayVersion,
	}
}

// sign signs the parameters using SHA256 with RSA (RSA2)
func (a *AlipayGateway) sign(params map[string]string) (string, error) {
	signStr := buildSignString(params)

	hash := sha256.Sum256([]byte(signStr))
	signature, err := rsa.SignPKCS1v15(rand.Reader, a.config.PrivateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// verifySign verifies the signature from Alipay
func (a *AlipayGateway) verifySign(values url.Values, signature string) bool {
	// Build params map excluding sign and sign_type
	params := make(map[string]string)
	for key := range values {
		if key != "sign" && key != "sign_type" {
			params[key] = values.Get(key)
		}
	}

	signStr := buildSignString(params)

	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	hash := sha256.Sum256([]byte(signStr))
	err = rsa.VerifyPKCS1v15(a.config.AlipayPublicKey, crypto.SHA256, hash[:], sigBytes)
	return err == nil
}

// buildSignString builds the string to sign: sorted key=value pairs joined by &
func buildSignString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if params[key] != "" && key != "sign" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, params[key]))
	}

	return strings.Join(parts, "&")
}

// buildPaymentURL builds the payment URL for web payments
func (a *AlipayGateway) buildPaymentURL(params map[string]string) string {
	gatewayURL := alipayGatewayURL
	if a.config.IsSandbox {
		gatewayURL = alipaySandboxGatewayURL
	}

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	return gatewayURL + "?" + values.Encode()
}

// doRequest performs an HTTP request to the Alipay API
func (a *AlipayGateway) doRequest(ctx context.Context, params map[string]string) ([]byte, error) {
	gatewayURL := alipayGatewayURL
	if a.config.IsSandbox {
		gatewayURL = alipaySandboxGatewayURL
	}

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", gatewayURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alipay: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", billing.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// parseAlipayNotification parses URL values into alipayNotification
func parseAlipayNotification(values url.Values) *alipayNotification {
	return &alipayNotification{
		NotifyTime:     values.Get("notify_time"),
		NotifyType:     values.Get("notify_type"),
		NotifyID:       values.Get("notify_id"),
		AppID:          values.Get("app_id"),
		SignType:       values.Get("sign_type"),
		Sign:           values.Get("sign"),
		TradeNo:        values.Get("trade_no"),
		OutTradeNo:     values.Get("out_trade_no"),
		BuyerLogonID:   values.Get("buyer_logon_id"),
		TradeStatus:    values.Get("trade_status"),
		TotalAmount:    values.Get("total_amount"),
		BuyerPayAmount: values.Get("buyer_pay_amount"),
		GmtPayment:     values.Get("gmt_payment"),
	}
}

// mapAlipayTradeStatus maps Alipay trade status to a callback status
func mapAlipayTradeStatus(status string) billing.CallbackStatus {
	switch status {
	case alipayTradeStatusTradeSuccess, alipayTradeStatusTradeFinished:
		return billing.CallbackStatusSuccess
	default:
		return billing.CallbackStatusFailed
	}
}

// Ensure AlipayGateway implements PaymentGateway
var _ billing.PaymentGateway = (*AlipayGateway)(nil)
