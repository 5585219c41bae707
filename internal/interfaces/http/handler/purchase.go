package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	"github.com/dealership/backend/internal/domain/workflow"
)

// purchaseOp is an id-only purchase operation
type purchaseOp func(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*appacq.PurchaseResponse, error)

// PurchaseHandler handles outright purchase endpoints
type PurchaseHandler struct {
	BaseHandler
	service *appacq.PurchaseService
	logger  *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(service *appacq.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service: service,
		logger:  logger.Named("purchase_handler"),
	}
}

// CreatePurchase opens a purchase and claims the car
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appacq.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	purchase, err := h.service.CreatePurchase(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, purchase)
}

// PayPurchase opens the payment for a created purchase
func (h *PurchaseHandler) PayPurchase(c *gin.Context) {
	h.transition(c, h.service.PayPurchase)
}

// CancelPurchase cancels a purchase with a mandatory reason
func (h *PurchaseHandler) CancelPurchase(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid purchase id")
		return
	}

	var req appacq.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	purchase, err := h.service.CancelPurchase(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}

// GetPurchase returns one purchase
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	h.transition(c, h.service.GetPurchase)
}

// ListPurchases returns a filtered page of purchases
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
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

	page, err := h.service.ListPurchases(c.Request.Context(), actor, &query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// transition runs an id-only purchase operation
func (h *PurchaseHandler) transition(c *gin.Context, op purchaseOp) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid purchase id")
		return
	}

	purchase, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, purchase)
}
