package payment

// alipayErrorResponse represents an error response from Alipay
type alipayErrorResponse struct {
	Code    string `json:"code"`
	Msg     string `json:"msg"`
	SubCode string `json:"sub_code,omitempty"`
	SubMsg  string `json:"sub_msg,omitempty"`
}

// IsSuccess returns true if the response indicates success
func (r *alipayErrorResponse) IsSuccess() bool {
	return r.Code == "10000"
}

// alipayTradeRefundResponse represents response for refund
type alipayTradeRefundResponse struct {
	Response struct {
		alipayErrorResponse
		TradeNo      string `json:"trade_no,omitempty"`
		OutTradeNo   string `json:"out_trade_no,omitempty"`
		FundChange   string `json:"fund_change,omitempty"`
		RefundFee    string `json:"refund_fee,omitempty"`
		GmtRefundPay string `json:"gmt_refund_pay,omitempty"`
	} `json:"alipay_trade_refund_response"`
	Sign string `json:"sign"`
}

// alipayNotification represents a payment notification from Alipay
// Alipay sends notifications as URL-encoded form data, not JSON
type alipayNotification struct {
	NotifyTime string `json:"notify_time"`
	NotifyType string `json:"notify_type"`
	NotifyID   string `json:"notify_id"`
	AppID      string `json:"app_id"`
	SignType   string `json:"sign_type"`
	Sign       string `json:"sign"`

	TradeNo        string `json:"trade_no"`         // Alipay trade number
	OutTradeNo     string `json:"out_trade_no"`     // Merchant order number
	BuyerLogonID   string `json:"buyer_logon_id"`   // Buyer Alipay account
	TradeStatus    string `json:"trade_status"`     // Trade status
	TotalAmount    string `json:"total_amount"`     // Total amount
	BuyerPayAmount string `json:"buyer_pay_amount"` // Buyer payment amount
	GmtPayment     string `json:"gmt_payment"`      // Payment time
}

// alipayBizContent represents the biz_content parameter for API requests
type alipayBizContent struct {
	OutTradeNo   string `json:"out_trade_no,omitempty"`
	ProductCode  string `json:"product_code,omitempty"`
	TotalAmount  string `json:"total_amount,omitempty"`
	Subject      string `json:"subject,omitempty"`
	TradeNo      string `json:"trade_no,omitempty"`
	RefundAmount string `json:"refund_amount,omitempty"`
	RefundReason string `json:"refund_reason,omitempty"`
	OutRequestNo string `json:"out_request_no,omitempty"`
}

// Alipay API methods
const (
	alipayMethodPagePay = "alipay.trade.page.pay" // PC web payment
	alipayMethodRefund  = "alipay.trade.refund"   // Refund
)

// Alipay product codes
const (
	alipayProductCodeFastInstantTradePay = "FAST_INSTANT_TRADE_PAY" // PC web
)

// Alipay trade status
const (
	alipayTradeStatusWaitBuyerPay  = "WAIT_BUYER_PAY" // Waiting for payment
	alipayTradeStatusTradeClosed   = "TRADE_CLOSED"   // Trade closed
	alipayTradeStatusTradeSuccess  = "TRADE_SUCCESS"  // Trade success
	alipayTradeStatusTradeFinished = "TRADE_FINISHED" // Trade finished (no refund allowed)
)
