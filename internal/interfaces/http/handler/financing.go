package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
)

// FinancingHandler handles financing quote endpoints. Quotes are pure
// calculations and require no authentication.
type FinancingHandler struct {
	BaseHandler
	service *appacq.FinancingService
	logger  *zap.Logger
}

// NewFinancingHandler creates a new FinancingHandler
func NewFinancingHandler(service *appacq.FinancingService, logger *zap.Logger) *FinancingHandler {
	return &FinancingHandler{
		service: service,
		logger:  logger.Named("financing_handler"),
	}
}

// Quote computes a financing quote from either a car id or a raw price,
// for a term of 1 to 5 years.
func (h *FinancingHandler) Quote(c *gin.Context) {
	yearsStr := c.Query("years")
	years, err := strconv.Atoi(yearsStr)
	if err != nil {
		h.BadRequest(c, "years must be an integer")
		return
	}

	carID := c.Query("car_id")
	price := c.Query("price")

	switch {
	case carID != "" && price != "":
		h.BadRequest(c, "provide either car_id or price, not both")
	case carID != "":
		quote, err := h.service.QuoteForCar(c.Request.Context(), carID, years)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, quote)
	case price != "":
		quote, err := h.service.QuoteForPrice(c.Request.Context(), price, years)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, quote)
	default:
		h.BadRequest(c, "car_id or price is required")
	}
}
