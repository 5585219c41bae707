package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appfleet "github.com/dealership/backend/internal/application/fleet"
)

// CarHandler handles car catalog endpoints. Listing and reading are
// open to any authenticated actor; catalog management is gated to
// staff and admins at the router.
type CarHandler struct {
	BaseHandler
	service *appfleet.CarService
	logger  *zap.Logger
}

// NewCarHandler creates a new CarHandler
func NewCarHandler(service *appfleet.CarService, logger *zap.Logger) *CarHandler {
	return &CarHandler{
		service: service,
		logger:  logger.Named("car_handler"),
	}
}

// CreateCar adds a car to the catalog
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req appfleet.CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	car, err := h.service.CreateCar(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, car)
}

// UpdateCar updates catalog fields of a car
func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid car id")
		return
	}

	var req appfleet.UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	car, err := h.service.UpdateCar(c.Request.Context(), id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, car)
}

// GetCar returns one car
func (h *CarHandler) GetCar(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid car id")
		return
	}

	car, err := h.service.GetCar(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, car)
}

// ListCars returns a filtered page of the catalog
func (h *CarHandler) ListCars(c *gin.Context) {
	var query appfleet.ListCarsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.ListCars(c.Request.Context(), &query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
