package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"porecon/internal/csvexport"
	"porecon/internal/service"
)

// ReportHandler handles summary report endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// sinceWindow parses the "since" query (RFC 3339 or YYYY-MM-DD), defaulting
// to the last 24 hours.
func sinceWindow(c *gin.Context) (time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return time.Now().UTC().Add(-24 * time.Hour), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "since must be RFC 3339 or YYYY-MM-DD")
	return time.Time{}, false
}

// Summary handles GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	since, ok := sinceWindow(c)
	if !ok {
		return
	}

	summary, err := h.reportService.BuildSummary(c.Request.Context(), since)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// Send handles POST /api/v1/reports/send
func (h *ReportHandler) Send(c *gin.Context) {
	since, ok := sinceWindow(c)
	if !ok {
		return
	}

	if err := h.reportService.SendSummary(c.Request.Context(), since); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"sent": true})
}

// ExportCSV handles GET /api/v1/reports/export/csv
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	since, ok := sinceWindow(c)
	if !ok {
		return
	}

	data, err := h.reportService.ExportCSV(c.Request.Context(), since)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("reconciliation", "csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportXLSX handles GET /api/v1/reports/export/xlsx
func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	since, ok := sinceWindow(c)
	if !ok {
		return
	}

	data, err := h.reportService.ExportXLSX(c.Request.Context(), since)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("reconciliation", "xlsx")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
