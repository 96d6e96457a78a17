package router

import (
	"github.com/gin-gonic/gin"

	"porecon/internal/handler"
	"porecon/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	healthH *handler.HealthHandler,
	poH *handler.PurchaseOrderHandler,
	invoiceH *handler.InvoiceHandler,
	reportH *handler.ReportHandler,
	intakeH *handler.IntakeHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Purchase order routes
	pos := v1.Group("/purchase-orders")
	pos.POST("", poH.Create)
	pos.GET("", poH.List)
	pos.GET("/:po_number", poH.GetByNumber)
	pos.PATCH("/:po_number/status", poH.UpdateStatus)

	// Invoice record and approval routes
	invoices := v1.Group("/invoices")
	invoices.GET("", invoiceH.List)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.POST("/:id/approve", invoiceH.Approve)
	invoices.POST("/:id/reject", invoiceH.Reject)

	// Report routes
	reports := v1.Group("/reports")
	reports.GET("/summary", reportH.Summary)
	reports.POST("/send", reportH.Send)
	reports.GET("/export/csv", reportH.ExportCSV)
	reports.GET("/export/xlsx", reportH.ExportXLSX)

	// Intake routes
	intake := v1.Group("/intake")
	intake.POST("", intakeH.Upload)
	intake.POST("/run", intakeH.RunCycle)

	return r
}
