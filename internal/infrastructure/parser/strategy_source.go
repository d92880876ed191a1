package parser

import (
	"context"
	"fmt"
	"log/slog"

	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
	"EnergyAnalyst/internal/scanner"
)

// StrategySource implements ports.ReportSource via registered scanner strategies.
type StrategySource struct {
	registry  *scanner.Registry
	companies map[string]config.CompanyConfig
	logger    *slog.Logger
}

var _ ports.ReportSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined companies.
func NewStrategySource(reg *scanner.Registry, companies []config.CompanyConfig, log *slog.Logger) *StrategySource {
	byName := make(map[string]config.CompanyConfig, len(companies))
	for _, c := range companies {
		byName[c.Name] = c
	}
	return &StrategySource{
		registry:  reg,
		companies: byName,
		logger:    log,
	}
}

// Fetch runs the scanner configured for company.
func (s *StrategySource) Fetch(ctx context.Context, company string) (domain.Acquisition, error) {
	if s.registry == nil {
		return domain.Acquisition{}, fmt.Errorf("scanner registry is not configured")
	}

	cfg, ok := s.companies[company]
	if !ok {
		return domain.Acquisition{}, fmt.Errorf("fetch %s: %w", company, domain.ErrUnknownCompany)
	}

	s.debug("process company", "company", company, "scanner", cfg.Scanner, "pages", len(cfg.Pages))
	strategy, err := s.registry.Resolve(cfg.Scanner)
	if err != nil {
		return domain.Acquisition{}, fmt.Errorf("company %s: %w", company, err)
	}

	req := scanner.Request{
		Company: domain.Company{Name: cfg.Name, Symbol: cfg.Symbol, Sector: cfg.Sector},
		Pages:   toScannerPages(cfg.Pages),
		Options: cfg.Options,
	}

	acq, err := strategy.Scan(ctx, req)
	if err != nil {
		return domain.Acquisition{}, fmt.Errorf("scan company %s: %w", company, err)
	}

	acq.Company = company
	acq.Report.Company = company
	s.debug("company scanned", "company", company, "found", acq.Found, "earlier", len(acq.Earlier))
	return acq, nil
}

func toScannerPages(cfg []config.PageConfig) []scanner.Page {
	pages := make([]scanner.Page, 0, len(cfg))
	for _, p := range cfg {
		pages = append(pages, scanner.Page{
			Name: p.Name,
			URL:  p.URL,
		})
	}
	return pages
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
