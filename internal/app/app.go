package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"EnergyAnalyst/internal/analysis"
	"EnergyAnalyst/internal/classifier"
	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/infrastructure/llm"
	"EnergyAnalyst/internal/infrastructure/parser"
	"EnergyAnalyst/internal/infrastructure/scheduler"
	"EnergyAnalyst/internal/infrastructure/storage"
	"EnergyAnalyst/internal/knowledge"
	"EnergyAnalyst/internal/logging"
	"EnergyAnalyst/internal/ports"
	"EnergyAnalyst/internal/responder"
	"EnergyAnalyst/internal/scanner"
	"EnergyAnalyst/internal/usecase"
)

const probeTimeout = 15 * time.Second

// Option customises wiring, mainly for tests.
type Option func(*options)

type options struct {
	completer    ports.Completer
	completerSet bool
	now          func() time.Time
}

// WithCompleter replaces the configured generative backend; nil disables it.
func WithCompleter(c ports.Completer) Option {
	return func(o *options) {
		o.completer = c
		o.completerSet = true
	}
}

// WithClock injects the clock used by storage and scanners.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLRepository
	refresher *usecase.Refresher
	responder *responder.Responder
	chatbot   *usecase.Chatbot
	scheduler *usecase.Scheduler
}

// New builds the application. Storage or knowledge failures are fatal; a missing or
// broken generative backend only disables that path.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	k, err := knowledge.Load(cfg.KnowledgePath)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, storage.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.SeedCompanies(ctx, toCompanies(cfg.Companies)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed companies: %w", err)
	}

	companies := cfg.CompanyNames()

	httpClient := &http.Client{Timeout: cfg.Scraper.Timeout}
	registry := scanner.NewRegistry()
	registry.Register(parser.NewEarningsScanner(httpClient, cfg.Scraper.UserAgent, o.now))
	registry.Register(parser.NewFileScanner(cfg.DatasetPath, o.now))
	source := parser.NewStrategySource(registry, cfg.Companies, baseLogger.With("component", "source"))

	completer := o.completer
	if !o.completerSet {
		completer, err = llm.New(ctx, cfg.LLM)
		if err != nil {
			baseLogger.Warn("generative backend disabled", "provider", cfg.LLM.Provider, "error", err)
			completer = nil
		}
	}

	engine := analysis.NewEngine(store, k, companies, baseLogger.With("component", "analysis"))
	resp := responder.New(responder.Deps{
		Completer:   completer,
		Classifier:  classifier.New(k),
		Fallback:    engine,
		Knowledge:   k,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Logger:      baseLogger.With("component", "responder"),
	})

	refresher := usecase.NewRefresher(source, store, companies, baseLogger.With("component", "refresh"))
	chatbot := usecase.NewChatbot(usecase.ChatbotDeps{
		Assembler: usecase.NewContextAssembler(store, k, companies, baseLogger.With("component", "context")),
		Answerer:  resp,
		Refresher: refresher,
		Store:     store,
		Logger:    baseLogger.With("component", "chatbot"),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location())

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		refresher: refresher,
		responder: resp,
		chatbot:   chatbot,
		scheduler: usecase.NewScheduler(driver, refresher),
	}, nil
}

// Prepare refreshes data when forced or stale and probes the generative backend.
func (a *Application) Prepare(ctx context.Context, fullUpdate bool) error {
	report, ran, err := a.refresher.EnsureFresh(ctx, a.cfg.Refresh.RecentWithin, fullUpdate)
	if err != nil {
		return fmt.Errorf("prepare data: %w", err)
	}
	if ran && report.Failed() {
		a.logger.Warn("some companies were not refreshed", "failed", len(report.Failures))
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	a.responder.Probe(probeCtx)
	return nil
}

// Ask answers a single question.
func (a *Application) Ask(ctx context.Context, question string) string {
	return a.chatbot.Ask(ctx, question)
}

// Watch refreshes data on the configured interval until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching for new reports", "interval", a.cfg.Scheduler.Interval.String())
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

func toCompanies(cfg []config.CompanyConfig) []domain.Company {
	companies := make([]domain.Company, 0, len(cfg))
	for _, c := range cfg {
		companies = append(companies, domain.Company{Name: c.Name, Symbol: c.Symbol, Sector: c.Sector})
	}
	return companies
}
