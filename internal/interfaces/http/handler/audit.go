package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	"github.com/dealership/backend/internal/domain/workflow"
)

// AuditHandler exposes the append-only transition trail
type AuditHandler struct {
	BaseHandler
	service *appacq.AuditService
	logger  *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service *appacq.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.Named("audit_handler"),
	}
}

// History returns the transition trail of one record, oldest first
func (h *AuditHandler) History(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	kind := workflow.Kind(strings.ToUpper(c.Param("kind")))
	recordID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid record id")
		return
	}

	records, err := h.service.History(c.Request.Context(), actor, kind, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}
