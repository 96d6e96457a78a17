package port

import "context"

// ReportSender defines the contract for delivering cycle summary reports.
type ReportSender interface {
	SendCycleReport(ctx context.Context, subject, body string) error
}
