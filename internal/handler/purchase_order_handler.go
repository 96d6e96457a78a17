package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"porecon/internal/domain"
	"porecon/internal/service"
)

// PurchaseOrderHandler handles purchase order endpoints.
type PurchaseOrderHandler struct {
	poService service.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler.
func NewPurchaseOrderHandler(poService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService}
}

type lineItemRequest struct {
	ItemName  string  `json:"item_name" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
}

// Create handles POST /api/v1/purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req struct {
		PONumber    string            `json:"po_number" binding:"required"`
		VendorName  string            `json:"vendor_name" binding:"required"`
		IssueDate   string            `json:"issue_date" binding:"required"`
		TotalAmount float64           `json:"total_amount" binding:"required"`
		Status      string            `json:"status"`
		LineItems   []lineItemRequest `json:"line_items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "po_number, vendor_name, issue_date and total_amount are required")
		return
	}

	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "issue_date must be YYYY-MM-DD")
		return
	}

	items := make([]domain.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		items = append(items, domain.LineItem{
			ItemName:  li.ItemName,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		})
	}

	po, err := h.poService.Create(c.Request.Context(), &service.CreatePurchaseOrderInput{
		PONumber:    req.PONumber,
		VendorName:  req.VendorName,
		IssueDate:   issueDate,
		TotalAmount: req.TotalAmount,
		LineItems:   items,
		Status:      domain.POStatus(req.Status),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, po)
}

// GetByNumber handles GET /api/v1/purchase-orders/:po_number
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	po, err := h.poService.GetByNumber(c.Request.Context(), c.Param("po_number"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, po)
}

// List handles GET /api/v1/purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	pos, total, err := h.poService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, pos, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// UpdateStatus handles PATCH /api/v1/purchase-orders/:po_number/status
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "status is required")
		return
	}

	if err := h.poService.UpdateStatus(c.Request.Context(), c.Param("po_number"), domain.POStatus(req.Status)); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"po_number": c.Param("po_number"), "status": req.Status})
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
