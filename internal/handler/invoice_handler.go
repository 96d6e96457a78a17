package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"porecon/internal/domain"
	"porecon/internal/service"
)

// InvoiceHandler handles invoice record and approval endpoints.
type InvoiceHandler struct {
	approvalService service.ApprovalService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(approvalService service.ApprovalService) *InvoiceHandler {
	return &InvoiceHandler{approvalService: approvalService}
}

// List handles GET /api/v1/invoices. An optional status query filters by
// approval status.
func (h *InvoiceHandler) List(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		recs, err := h.approvalService.ListByStatus(c.Request.Context(), domain.ApprovalStatus(status))
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_STATUS", "unknown approval status; allowed: pending, needs_review, approved, rejected")
			return
		}
		RespondOK(c, recs)
		return
	}

	offset, limit := parsePagination(c)
	recs, total, err := h.approvalService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	rec, err := h.approvalService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

type decisionRequest struct {
	DecidedBy string `json:"decided_by" binding:"required"`
	Override  bool   `json:"override"`
}

// Approve handles POST /api/v1/invoices/:id/approve
func (h *InvoiceHandler) Approve(c *gin.Context) {
	h.decide(c, h.approvalService.Approve)
}

// Reject handles POST /api/v1/invoices/:id/reject
func (h *InvoiceHandler) Reject(c *gin.Context) {
	h.decide(c, h.approvalService.Reject)
}

func (h *InvoiceHandler) decide(c *gin.Context, fn func(ctx context.Context, input *service.DecisionInput) (*domain.InvoiceRecord, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "decided_by is required")
		return
	}

	rec, err := fn(c.Request.Context(), &service.DecisionInput{
		InvoiceID: id,
		DecidedBy: req.DecidedBy,
		Override:  req.Override,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}
