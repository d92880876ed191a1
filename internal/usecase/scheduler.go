package usecase

import (
	"context"
	"time"

	"EnergyAnalyst/internal/ports"
)

// Scheduler wires a ticking driver to periodic refreshes.
type Scheduler struct {
	driver    ports.Scheduler
	refresher *Refresher
}

// NewScheduler returns a helper to start/stop recurring refreshes.
func NewScheduler(driver ports.Scheduler, refresher *Refresher) *Scheduler {
	return &Scheduler{driver: driver, refresher: refresher}
}

// Start registers the refresh job with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.refresher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.refresher.logger.Info("scheduled refresh", "trigger", trigger.UTC().Format(time.RFC3339))
		_ = s.refresher.RefreshAll(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
