package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// MonitorConfig holds reconciliation cycle scheduling settings.
type MonitorConfig struct {
	CronSpec   string
	RunOnStart bool
	SendReport bool
}

// MonitorWorker schedules reconciliation cycles and, optionally, delivers a
// summary report after each one. At most one cycle runs at a time; a tick
// that fires while a cycle is in flight is skipped.
type MonitorWorker struct {
	cron      *cron.Cron
	reconcile ReconcileService
	reports   ReportService
	cfg       MonitorConfig

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewMonitorWorker creates a new MonitorWorker.
func NewMonitorWorker(reconcile ReconcileService, reports ReportService, cfg MonitorConfig) *MonitorWorker {
	return &MonitorWorker{
		cron:      cron.New(cron.WithLogger(cron.DefaultLogger)),
		reconcile: reconcile,
		reports:   reports,
		cfg:       cfg,
	}
}

// Start registers the cycle job and starts the scheduler.
func (w *MonitorWorker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.cfg.CronSpec, func() {
		w.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	w.cron.Start()
	log.Printf("monitorWorker: cron started (spec=%s, send_report=%t)", w.cfg.CronSpec, w.cfg.SendReport)

	if w.cfg.RunOnStart {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runCycle(ctx)
		}()
	}
	return nil
}

// Stop shuts down the scheduler and waits for an in-flight cycle to finish.
func (w *MonitorWorker) Stop() {
	<-w.cron.Stop().Done()
	w.wg.Wait()
	log.Printf("monitorWorker: stopped")
}

func (w *MonitorWorker) runCycle(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		log.Printf("monitorWorker: previous cycle still running, skipping tick")
		return
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	cycle, err := w.reconcile.RunCycle(ctx)
	if err != nil {
		log.Printf("monitorWorker: cycle error: %v", err)
		return
	}

	if w.cfg.SendReport && cycle.Processed > 0 {
		if err := w.reports.SendSummary(ctx, cycle.StartedAt); err != nil {
			log.Printf("monitorWorker: cycle %s report: %v", cycle.ID, err)
		}
	}
}
