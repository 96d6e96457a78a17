package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porecon/internal/report"
)

type stubReconciler struct {
	calls     atomic.Int32
	processed int
	release   chan struct{}
}

func (s *stubReconciler) RunCycle(context.Context) (*Cycle, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	return &Cycle{Processed: s.processed}, nil
}

func (s *stubReconciler) ProcessObject(context.Context, *Cycle, string) error { return nil }

type stubReports struct {
	sent atomic.Int32
}

func (s *stubReports) BuildSummary(context.Context, time.Time) (*report.Summary, error) {
	return &report.Summary{}, nil
}

func (s *stubReports) SendSummary(context.Context, time.Time) error {
	s.sent.Add(1)
	return nil
}

func (s *stubReports) ExportCSV(context.Context, time.Time) ([]byte, error)  { return nil, nil }
func (s *stubReports) ExportXLSX(context.Context, time.Time) ([]byte, error) { return nil, nil }

func TestMonitorWorker_RunOnStart(t *testing.T) {
	rec := &stubReconciler{processed: 2}
	rep := &stubReports{}
	w := NewMonitorWorker(rec, rep, MonitorConfig{
		CronSpec:   "@every 1h",
		RunOnStart: true,
		SendReport: true,
	})

	require.NoError(t, w.Start(context.Background()))
	w.Stop()

	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, int32(1), rep.sent.Load())
}

func TestMonitorWorker_NoReportForIdleCycle(t *testing.T) {
	rec := &stubReconciler{}
	rep := &stubReports{}
	w := NewMonitorWorker(rec, rep, MonitorConfig{
		CronSpec:   "@every 1h",
		RunOnStart: true,
		SendReport: true,
	})

	require.NoError(t, w.Start(context.Background()))
	w.Stop()

	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Zero(t, rep.sent.Load())
}

func TestMonitorWorker_InvalidCronSpec(t *testing.T) {
	w := NewMonitorWorker(&stubReconciler{}, &stubReports{}, MonitorConfig{CronSpec: "not a spec"})
	assert.Error(t, w.Start(context.Background()))
}

func TestMonitorWorker_SkipsOverlappingCycle(t *testing.T) {
	rec := &stubReconciler{release: make(chan struct{})}
	w := NewMonitorWorker(rec, &stubReports{}, MonitorConfig{CronSpec: "@every 1h"})

	done := make(chan struct{})
	go func() {
		w.runCycle(context.Background())
		close(done)
	}()

	// Wait until the first cycle holds the running flag.
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.running
	}, time.Second, 5*time.Millisecond)

	w.runCycle(context.Background()) // overlapping tick, skipped
	assert.Equal(t, int32(1), rec.calls.Load())

	close(rec.release)
	<-done
}
