package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"porecon/internal/csvexport"
	"porecon/internal/port"
	"porecon/internal/report"
)

// ReportService builds and delivers reconciliation summaries.
type ReportService interface {
	BuildSummary(ctx context.Context, since time.Time) (*report.Summary, error)
	SendSummary(ctx context.Context, since time.Time) error
	ExportCSV(ctx context.Context, since time.Time) ([]byte, error)
	ExportXLSX(ctx context.Context, since time.Time) ([]byte, error)
}

type reportService struct {
	invoices port.InvoiceRecordRepository
	builder  *report.Builder
	sender   port.ReportSender
	now      func() time.Time
}

// NewReportService creates a new ReportService implementation.
func NewReportService(invoices port.InvoiceRecordRepository, sender port.ReportSender) ReportService {
	return &reportService{
		invoices: invoices,
		builder:  report.NewBuilder(),
		sender:   sender,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) BuildSummary(ctx context.Context, since time.Time) (*report.Summary, error) {
	recs, err := s.invoices.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("reportService.BuildSummary: %w", err)
	}
	return s.builder.Build(recs, since, s.now()), nil
}

func (s *reportService) SendSummary(ctx context.Context, since time.Time) error {
	summary, err := s.BuildSummary(ctx, since)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Invoice reconciliation report: %d processed, %d need attention",
		summary.Total, len(summary.Entries))
	return s.sender.SendCycleReport(ctx, subject, report.RenderText(summary))
}

func (s *reportService) ExportCSV(ctx context.Context, since time.Time) ([]byte, error) {
	recs, err := s.invoices.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: %w", err)
	}
	if err := w.WriteRecords(recs); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *reportService) ExportXLSX(ctx context.Context, since time.Time) ([]byte, error) {
	summary, err := s.BuildSummary(ctx, since)
	if err != nil {
		return nil, err
	}
	return report.RenderXLSX(summary)
}
