package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
)

// PaymentHandler handles payment and refund endpoints, including the
// unauthenticated gateway callback.
type PaymentHandler struct {
	BaseHandler
	service *appacq.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *appacq.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.Named("payment_handler"),
	}
}

// GetPayment returns one payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// ListPayments returns a filtered page of payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query appacq.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListPayments(c.Request.Context(), actor, &query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// CancelPayment voids a pending payment with a mandatory reason
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	var req appacq.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.service.CancelPayment(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// RequestRefund asks for a refund of a paid payment
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	var req appacq.RefundRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.service.RequestRefund(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// ApproveRefund approves a pending refund and executes it upstream
func (h *PaymentHandler) ApproveRefund(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	payment, err := h.service.ApproveRefund(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// DenyRefund denies a pending refund and restores the paid state
func (h *PaymentHandler) DenyRefund(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid payment id")
		return
	}

	payment, err := h.service.DenyRefund(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// Callback receives the gateway payment notification. The response
// body is whatever the gateway adapter dictates; the status is always
// 200 so the gateway stops retrying once we acknowledged.
func (h *PaymentHandler) Callback(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Warn("failed to read callback body", zap.Error(err))
		c.String(http.StatusBadRequest, "fail")
		return
	}

	signature := c.GetHeader("X-Signature")

	ack, err := h.service.HandleCallback(c.Request.Context(), payload, signature)
	if err != nil {
		h.logger.Warn("payment callback rejected", zap.Error(err))
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", ack)
}
