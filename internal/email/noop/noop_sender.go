package noop

import (
	"context"
	"log"

	"porecon/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op ReportSender that logs report subjects to stdout.
func NewNoopSender() port.ReportSender {
	return &noopSender{}
}

func (s *noopSender) SendCycleReport(_ context.Context, subject, body string) error {
	log.Printf("[NOOP EMAIL] Cycle report %q (%d bytes)", subject, len(body))
	return nil
}
