package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	"github.com/dealership/backend/internal/domain/workflow"
)

// bookingOp is an id-only booking operation
type bookingOp func(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*appacq.BookingResponse, error)

// BookingHandler handles test-drive booking endpoints
type BookingHandler struct {
	BaseHandler
	service *appacq.BookingService
	logger  *zap.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service *appacq.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger.Named("booking_handler"),
	}
}

// CreateBooking schedules a test drive
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appacq.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), actor, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, booking)
}

// ConfirmBooking confirms a pending booking
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, h.service.ConfirmBooking)
}

// CompleteBooking marks a confirmed booking as completed
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.service.CompleteBooking)
}

// CancelBooking cancels a booking with a mandatory reason
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid booking id")
		return
	}

	var req appacq.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, booking)
}

// AssignStaff assigns a staff member to run the test drive
func (h *BookingHandler) AssignStaff(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid booking id")
		return
	}

	var req appacq.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	booking, err := h.service.AssignStaff(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, booking)
}

// GetBooking returns one booking
func (h *BookingHandler) GetBooking(c *gin.Context) {
	h.transition(c, h.service.GetBooking)
}

// ListBookings returns a filtered page of bookings. Buyers only ever
// see their own records.
func (h *BookingHandler) ListBookings(c *gin.Context) {
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

	page, err := h.service.ListBookings(c.Request.Context(), actor, &query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// transition runs an id-only booking operation
func (h *BookingHandler) transition(c *gin.Context, op bookingOp) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid booking id")
		return
	}

	booking, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, booking)
}
