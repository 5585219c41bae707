package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
)

// LoanHandler handles loan review endpoints
type LoanHandler struct {
	BaseHandler
	service *appacq.LoanService
	logger  *zap.Logger
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(service *appacq.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{
		service: service,
		logger:  logger.Named("loan_handler"),
	}
}

// GetLoan returns one loan review
func (h *LoanHandler) GetLoan(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	loan, err := h.service.GetLoan(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loan)
}

// GetLoanByReservation returns the loan review attached to a reservation
func (h *LoanHandler) GetLoanByReservation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	reservationID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid reservation id")
		return
	}

	loan, err := h.service.GetLoanByReservation(c.Request.Context(), actor, reservationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loan)
}

// GenerateUploadURL returns a presigned upload target for a document
func (h *LoanHandler) GenerateUploadURL(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	var req appacq.DocumentUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.GenerateUploadURL(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SubmitDocuments appends document references to an open review
func (h *LoanHandler) SubmitDocuments(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	var req appacq.SubmitDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loan, err := h.service.SubmitDocuments(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loan)
}

// GetDocumentDownloadURL returns a presigned download link for one document
func (h *LoanHandler) GetDocumentDownloadURL(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		h.BadRequest(c, "invalid document id")
		return
	}

	url, err := h.service.GenerateDocumentDownloadURL(c.Request.Context(), actor, id, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"download_url": url})
}

// ApproveLoan approves an open loan review
func (h *LoanHandler) ApproveLoan(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	loan, err := h.service.ApproveLoan(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loan)
}

// RejectLoan rejects an open loan review with a mandatory reason
func (h *LoanHandler) RejectLoan(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid loan id")
		return
	}

	var req appacq.RejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loan, err := h.service.RejectLoan(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loan)
}
