package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	"github.com/dealership/backend/internal/domain/workflow"
)

// reservationOp is an id-only reservation operation
type reservationOp func(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*appacq.ReservationResponse, error)

// ReservationHandler handles reservation endpoints
type ReservationHandler struct {
	BaseHandler
	service *appacq.ReservationService
	logger  *zap.Logger
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(service *appacq.ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		logger:  logger.Named("reservation_handler"),
	}
}

// CreateReservation opens a reservation and claims the car
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appacq.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reservation, err := h.service.CreateReservation(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, reservation)
}

// PayReservation opens the payment for a created reservation
func (h *ReservationHandler) PayReservation(c *gin.Context) {
	h.transition(c, h.service.PayReservation)
}

// AcquireReservation finalizes the sale to the reservation holder
func (h *ReservationHandler) AcquireReservation(c *gin.Context) {
	h.transition(c, h.service.AcquireReservation)
}

// CancelReservation cancels a reservation with a mandatory reason
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid reservation id")
		return
	}

	var req appacq.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reservation, err := h.service.CancelReservation(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// GetReservation returns one reservation
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	h.transition(c, h.service.GetReservation)
}

// ListReservations returns a filtered page of reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
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

	page, err := h.service.ListReservations(c.Request.Context(), actor, &query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// transition runs an id-only reservation operation
func (h *ReservationHandler) transition(c *gin.Context, op reservationOp) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid reservation id")
		return
	}

	reservation, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}
