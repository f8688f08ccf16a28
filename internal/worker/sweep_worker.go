package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sbhdesk/complaint-engine/internal/service"
)

// SweepWorker runs the daily delay sweep followed by the reminder
// sweep on a cron schedule. The delay sweep must come first so that
// freshly flagged cases are picked up by the same reminder pass.
type SweepWorker struct {
	delay    *service.DelayService
	notify   *service.NotifyService
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewSweepWorker constructs the worker. A standard 5-field cron
// expression is expected, e.g. "15 0 * * *".
func NewSweepWorker(delay *service.DelayService, notify *service.NotifyService, schedule string, logger *zap.Logger) *SweepWorker {
	return &SweepWorker{delay: delay, notify: notify, schedule: schedule, logger: logger}
}

// Start schedules the sweeps and launches the cron loop.
func (w *SweepWorker) Start() error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, w.runOnce)
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("sweep worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the cron loop and waits for any in-flight run.
func (w *SweepWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("sweep worker stopped")
}

func (w *SweepWorker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := time.Now()
	if err := w.delay.RunDelaySweep(ctx, now); err != nil {
		w.logger.Error("delay sweep failed", zap.Error(err))
	}
	if err := w.notify.RunReminderSweep(ctx, now); err != nil {
		w.logger.Error("reminder sweep failed", zap.Error(err))
	}
}
