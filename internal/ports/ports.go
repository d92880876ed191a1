package ports

import (
	"context"
	"time"

	"EnergyAnalyst/internal/domain"
)

// ReportReader is the read side of the financial record store.
type ReportReader interface {
	Latest(ctx context.Context, company string) (domain.FinancialReport, error)
	History(ctx context.Context, company, metric string, limit int) ([]domain.HistoryPoint, error)
	HasRecent(ctx context.Context, company string, within time.Duration) (bool, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
}

// ReportStore persists one financial report per company and period.
type ReportStore interface {
	ReportReader
	Put(ctx context.Context, company string, report domain.FinancialReport) error
}

// ReportSource pulls raw figures for a company from an external source.
type ReportSource interface {
	Fetch(ctx context.Context, company string) (domain.Acquisition, error)
}

// CompletionRequest is a single system+user exchange with the generative backend.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer talks to a generative text backend (OpenAI, Gemini).
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Probe(ctx context.Context) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
