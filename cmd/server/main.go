package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"porecon/internal/compare"
	"porecon/internal/config"
	"porecon/internal/email/noop"
	"porecon/internal/email/ses"
	"porecon/internal/extract"
	"porecon/internal/handler"
	"porecon/internal/match"
	"porecon/internal/port"
	"porecon/internal/repository/postgres"
	"porecon/internal/router"
	"porecon/internal/service"
	s3storage "porecon/internal/storage/s3"
	"porecon/internal/textract"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	poRepo := postgres.NewPurchaseOrderRepo(db)
	invoiceRepo := postgres.NewInvoiceRecordRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize report delivery
	var sender port.ReportSender
	switch cfg.Email.Provider {
	case "ses":
		sender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.ToAddresses)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noop.NewNoopSender()
	}

	// Initialize the reconciliation pipeline
	matcher := match.New(poRepo, match.Weights{
		Vendor:            cfg.Matching.VendorWeight,
		Amount:            cfg.Matching.AmountWeight,
		Recency:           cfg.Matching.RecencyWeight,
		AmountTolerance:   cfg.Matching.AmountTolerance,
		RecencyWindowDays: cfg.Matching.RecencyWindowDays,
		Threshold:         cfg.Matching.Threshold,
	})
	comparator := compare.New(compare.Policy{
		AmountTolerance:  cfg.Compare.AmountTolerance,
		BlockingFactor:   cfg.Compare.BlockingFactor,
		VendorSimilarity: cfg.Compare.VendorSimilarity,
	})
	reconcileSvc := service.NewReconcileService(
		s3Client,
		textract.New(),
		extract.New(),
		matcher,
		comparator,
		invoiceRepo,
		service.IntakeConfig{
			Bucket:           cfg.S3.Bucket,
			IntakePrefix:     cfg.S3.IntakePrefix,
			ProcessedPrefix:  cfg.S3.ProcessedPrefix,
			FailedPrefix:     cfg.S3.FailedPrefix,
			Concurrency:      cfg.Monitor.Concurrency,
			AutoApproveClean: cfg.Monitor.AutoApproveClean,
		},
	)

	// Initialize services
	poSvc := service.NewPurchaseOrderService(poRepo)
	approvalSvc := service.NewApprovalService(invoiceRepo)
	reportSvc := service.NewReportService(invoiceRepo, sender)

	// Initialize handlers
	healthH := handler.NewHealthHandler(db)
	poH := handler.NewPurchaseOrderHandler(poSvc)
	invoiceH := handler.NewInvoiceHandler(approvalSvc)
	reportH := handler.NewReportHandler(reportSvc)
	intakeH := handler.NewIntakeHandler(s3Client, reconcileSvc, cfg.S3.Bucket, cfg.S3.IntakePrefix)

	// Setup router
	r := router.Setup(healthH, poH, invoiceH, reportH, intakeH, cfg.CORS.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the reconciliation scheduler
	monitor := service.NewMonitorWorker(reconcileSvc, reportSvc, service.MonitorConfig{
		CronSpec:   cfg.Monitor.CronSpec,
		RunOnStart: cfg.Monitor.RunOnStart,
		SendReport: cfg.Monitor.SendReport,
	})
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor worker: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
