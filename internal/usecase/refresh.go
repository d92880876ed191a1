package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
)

// RefreshReport summarises one refresh cycle.
type RefreshReport struct {
	Updated  []string
	Failures map[string]error
}

// Failed reports whether any company could not be refreshed.
func (r RefreshReport) Failed() bool {
	return len(r.Failures) > 0
}

// Refresher pulls fresh figures for every tracked company into the store.
type Refresher struct {
	source    ports.ReportSource
	store     ports.ReportStore
	companies []string
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRefresher wires the acquisition source to the store.
func NewRefresher(source ports.ReportSource, store ports.ReportStore, companies []string, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Refresher{
		source:    source,
		store:     store,
		companies: append([]string(nil), companies...),
		logger:    logger,
		locks:     map[string]*sync.Mutex{},
	}
}

// RefreshAll updates companies one after another. A failing company is recorded and the
// rest still run.
func (r *Refresher) RefreshAll(ctx context.Context) RefreshReport {
	report := RefreshReport{Failures: map[string]error{}}

	for _, company := range r.companies {
		if err := ctx.Err(); err != nil {
			report.Failures[company] = err
			continue
		}
		if err := r.Refresh(ctx, company); err != nil {
			r.logger.Warn("refresh company", "company", company, "error", err)
			report.Failures[company] = err
			continue
		}
		report.Updated = append(report.Updated, company)
	}

	r.logger.Info("refresh finished", "updated", len(report.Updated), "failed", len(report.Failures))
	return report
}

// Refresh fetches and stores the latest figures for one company.
func (r *Refresher) Refresh(ctx context.Context, company string) error {
	if r.source == nil {
		return fmt.Errorf("refresh %s: no report source configured", company)
	}

	lock := r.lockFor(company)
	lock.Lock()
	defer lock.Unlock()

	acq, err := r.source.Fetch(ctx, company)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", company, err)
	}
	if !acq.Found || !acq.Report.HasHeadlineFigures() {
		return fmt.Errorf("fetch %s: %w", company, domain.ErrNoData)
	}

	for _, earlier := range acq.Earlier {
		if !earlier.HasHeadlineFigures() {
			continue
		}
		if err := r.store.Put(ctx, company, earlier); err != nil {
			return fmt.Errorf("store %s %s: %w", company, earlier.Period.Label(), err)
		}
	}
	if err := r.store.Put(ctx, company, acq.Report); err != nil {
		return fmt.Errorf("store %s: %w", company, err)
	}

	r.logger.Info("report stored",
		"company", company,
		"period", acq.Report.Period.Label(),
		"source", acq.Report.DataSource,
		"url", acq.SourceURL)
	return nil
}

// Stale lists the companies without data written inside the given window.
func (r *Refresher) Stale(ctx context.Context, within time.Duration) ([]string, error) {
	var stale []string
	for _, company := range r.companies {
		recent, err := r.store.HasRecent(ctx, company, within)
		if err != nil {
			return nil, fmt.Errorf("check recent data for %s: %w", company, err)
		}
		if !recent {
			stale = append(stale, company)
		}
	}
	return stale, nil
}

// EnsureFresh refreshes everything when forced or when any company is stale.
func (r *Refresher) EnsureFresh(ctx context.Context, within time.Duration, force bool) (RefreshReport, bool, error) {
	if !force {
		stale, err := r.Stale(ctx, within)
		if err != nil {
			return RefreshReport{}, false, err
		}
		if len(stale) == 0 {
			return RefreshReport{}, false, nil
		}
		r.logger.Info("stale company data", "companies", stale)
	}
	return r.RefreshAll(ctx), true, nil
}

func (r *Refresher) lockFor(company string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[company]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[company] = lock
	}
	return lock
}
