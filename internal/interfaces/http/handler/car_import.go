package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appfleet "github.com/dealership/backend/internal/application/fleet"
	"github.com/dealership/backend/internal/domain/shared"
)

const maxImportFileSize = 5 * 1024 * 1024

// CarImportHandler handles bulk CSV import of the car catalog.
// Staff-only, gated at the router.
type CarImportHandler struct {
	BaseHandler
	service *appfleet.CarImportService
	logger  *zap.Logger
}

// NewCarImportHandler creates a new CarImportHandler
func NewCarImportHandler(service *appfleet.CarImportService, logger *zap.Logger) *CarImportHandler {
	return &CarImportHandler{
		service: service,
		logger:  logger.Named("car_import_handler"),
	}
}

// ImportCars accepts a CSV file and imports it into the catalog
func (h *CarImportHandler) ImportCars(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "authentication required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, shared.CodeValidation, "file exceeds maximum size of 5MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" {
		h.Error(c, http.StatusUnsupportedMediaType, shared.CodeValidation, "file must be a CSV file")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportFileSize+1))
	if err != nil {
		h.InternalError(c, "failed to read uploaded file")
		return
	}

	result, err := h.service.ImportCars(c.Request.Context(), actor.ID, header.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetImportSession returns the status of a previous import
func (h *CarImportHandler) GetImportSession(c *gin.Context) {
	id, err := parseUUIDParam(c, "sessionId")
	if err != nil {
		h.BadRequest(c, "invalid session id")
		return
	}

	session, err := h.service.GetImportSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}
