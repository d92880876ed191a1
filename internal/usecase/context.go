package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/knowledge"
	"EnergyAnalyst/internal/ports"
)

const (
	historyCompanies = 2
	historyPeriods   = 4
)

var historyMetrics = []string{"revenue", "net_income"}

// ContextAssembler gathers the evidence a question needs from the record store.
type ContextAssembler struct {
	store     ports.ReportReader
	knowledge *knowledge.Knowledge
	companies []string
	logger    *slog.Logger
}

// NewContextAssembler builds an assembler over the tracked companies.
func NewContextAssembler(store ports.ReportReader, k *knowledge.Knowledge, companies []string, logger *slog.Logger) *ContextAssembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ContextAssembler{
		store:     store,
		knowledge: k,
		companies: append([]string(nil), companies...),
		logger:    logger,
	}
}

// Assemble never fails: missing data and store errors shrink the bundle instead.
func (a *ContextAssembler) Assemble(ctx context.Context, question string) domain.EvidenceBundle {
	text := strings.ToLower(question)

	bundle := domain.EvidenceBundle{
		Question:          question,
		RelevantCompanies: a.relevantCompanies(text),
		RelevantMetrics:   a.relevantMetrics(text),
		Latest:            map[string]domain.FinancialReport{},
		History:           map[string]map[string][]domain.HistoryPoint{},
		Market:            a.knowledge.Market,
	}

	for _, company := range bundle.RelevantCompanies {
		report, err := a.store.Latest(ctx, company)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.Warn("load latest report", "company", company, "error", err)
			}
			continue
		}
		report.Company = company
		bundle.Latest[company] = report
	}

	if knowledge.ContainsAny(text, a.knowledge.TrendKeywords) {
		for _, company := range firstCompanies(bundle.RelevantCompanies, historyCompanies) {
			series := map[string][]domain.HistoryPoint{}
			for _, metric := range historyMetrics {
				points, err := a.store.History(ctx, company, metric, historyPeriods)
				if err != nil {
					a.logger.Warn("load history", "company", company, "metric", metric, "error", err)
					continue
				}
				if len(points) > 0 {
					series[metric] = points
				}
			}
			if len(series) > 0 {
				bundle.History[company] = series
			}
		}
	}

	return bundle
}

func (a *ContextAssembler) relevantCompanies(lowerText string) []string {
	var found []string
	for _, company := range a.companies {
		if a.knowledge.Mentions(lowerText, company) {
			found = append(found, company)
		}
	}
	if len(found) == 0 {
		return append([]string(nil), a.companies...)
	}
	return found
}

func (a *ContextAssembler) relevantMetrics(lowerText string) []domain.MetricTag {
	var tags []domain.MetricTag
	for _, rule := range a.knowledge.Metrics {
		if knowledge.ContainsAny(lowerText, rule.Keywords) {
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}

func firstCompanies(companies []string, n int) []string {
	if len(companies) > n {
		return companies[:n]
	}
	return companies
}
