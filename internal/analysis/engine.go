// Package analysis is the deterministic analysis engine. It reads the record store
// directly and renders complete answers without any external dependency.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/knowledge"
	"EnergyAnalyst/internal/ports"
)

const (
	comparisonMarker = "📊"
	investmentMarker = "💼"
)

// Engine renders performance, comparison and investment reports.
type Engine struct {
	store     ports.ReportReader
	knowledge *knowledge.Knowledge
	companies []string
	logger    *slog.Logger
}

// NewEngine wires the engine. companies is the tracked set in display order; it also
// breaks ranking ties.
func NewEngine(store ports.ReportReader, k *knowledge.Knowledge, companies []string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:     store,
		knowledge: k,
		companies: append([]string(nil), companies...),
		logger:    logger,
	}
}

// Answer routes a question to the report shape that fits it best. The result is never empty.
func (e *Engine) Answer(ctx context.Context, question string, category domain.Category) string {
	text := strings.ToLower(question)
	mentioned := e.mentioned(text)

	wantsComparison := category == domain.CategoryComparison ||
		len(mentioned) > 1 ||
		knowledge.ContainsAny(text, e.knowledge.ComparisonIntent)

	switch {
	case len(mentioned) == 1 && !wantsComparison:
		return e.Performance(ctx, mentioned[0])
	case wantsComparison:
		if report, ok := e.Comparison(ctx); ok {
			return comparisonMarker + " " + report
		}
	case knowledge.ContainsAny(text, e.knowledge.InvestmentIntent) ||
		category == domain.CategoryMarketAnalysis ||
		category == domain.CategoryRiskStrategy:
		if report, ok := e.Investment(ctx); ok {
			return investmentMarker + " " + report
		}
	default:
		if report, ok := e.Comparison(ctx); ok {
			return comparisonMarker + " " + report
		}
	}

	if len(mentioned) > 0 {
		return e.Performance(ctx, mentioned[0])
	}
	return e.guidance()
}

// Performance renders the single-company narrative.
func (e *Engine) Performance(ctx context.Context, company string) string {
	report, ok := e.latest(ctx, company)
	if !ok {
		return fmt.Sprintf("No financial data available for %s.", company)
	}
	m := Compute(report)

	var b strings.Builder
	fmt.Fprintf(&b, "%s PERFORMANCE ANALYSIS\n", strings.ToUpper(company))
	if label := report.Period.Label(); label != "" {
		fmt.Fprintf(&b, "Period: %s", label)
		if !report.Period.ReportDate.IsZero() {
			fmt.Fprintf(&b, " (reported %s)", report.Period.ReportDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("FINANCIAL OVERVIEW:\n")
	fmt.Fprintf(&b, "Revenue: %s\n", Millions(domain.Value(report.Revenue)))
	fmt.Fprintf(&b, "Net Income: %s\n", Millions(domain.Value(report.NetIncome)))
	fmt.Fprintf(&b, "Free Cash Flow: %s\n", Millions(domain.Value(report.FreeCashFlow)))
	fmt.Fprintf(&b, "Production: %s %s\n\n", Volume(domain.Value(report.ProductionVolume)), report.Unit())

	b.WriteString("PERFORMANCE ASSESSMENT:\n")
	fmt.Fprintf(&b, "Profitability: %s\n", Profitability(m))
	fmt.Fprintf(&b, "Financial Strength: %s\n", FinancialStrength(m))
	fmt.Fprintf(&b, "Cash Generation: %s\n", CashGeneration(m))
	writeDataGaps(&b, m)
	b.WriteString("\n")

	if insight, ok := e.knowledge.Insight(company); ok {
		b.WriteString("STRATEGIC INSIGHTS:\n")
		fmt.Fprintf(&b, "Core Strengths: %s\n", join(insight.Strengths, 2))
		fmt.Fprintf(&b, "Strategic Focus: %s\n", join(insight.StrategicFocus, 2))
		fmt.Fprintf(&b, "Key Challenges: %s\n\n", join(insight.Challenges, 2))
	}

	fmt.Fprintf(&b, "INVESTMENT GRADE: %s\n", InvestmentGrade(m))
	return b.String()
}

// Comparison renders the multi-company comparison. It needs data for at least two companies.
func (e *Engine) Comparison(ctx context.Context) (string, bool) {
	reports := e.latestAll(ctx)
	if len(reports) < 2 {
		return "Insufficient data for comparison.", false
	}

	var b strings.Builder
	b.WriteString("COMPREHENSIVE COMPANY COMPARISON\n\n")
	b.WriteString("FINANCIAL METRICS COMPARISON:\n\n")
	for _, report := range reports {
		m := Compute(report)
		fmt.Fprintf(&b, "%s:\n", report.Company)
		fmt.Fprintf(&b, "  Revenue: %s\n", Millions(domain.Value(report.Revenue)))
		fmt.Fprintf(&b, "  Net Income: %s\n", Millions(domain.Value(report.NetIncome)))
		fmt.Fprintf(&b, "  Profit Margin: %.1f%%\n", m.ProfitMargin)
		fmt.Fprintf(&b, "  Free Cash Flow: %s\n", Millions(domain.Value(report.FreeCashFlow)))
		fmt.Fprintf(&b, "  Production: %s %s\n\n", Volume(domain.Value(report.ProductionVolume)), report.Unit())
	}

	b.WriteString("PERFORMANCE LEADERS:\n")
	leaders := []struct {
		label string
		value func(domain.FinancialReport) float64
	}{
		{"Revenue Leader", func(r domain.FinancialReport) float64 { return domain.Value(r.Revenue) }},
		{"Profit Leader", func(r domain.FinancialReport) float64 { return domain.Value(r.NetIncome) }},
		{"Cash Flow Leader", func(r domain.FinancialReport) float64 { return domain.Value(r.FreeCashFlow) }},
	}
	for _, l := range leaders {
		leader, _ := Leader(reports, l.value)
		fmt.Fprintf(&b, "%s: %s (%s)\n", l.label, leader.Company, Millions(l.value(leader)))
	}

	var positioning []string
	for _, report := range reports {
		if insight, ok := e.knowledge.Insight(report.Company); ok && len(insight.StrategicFocus) > 0 {
			positioning = append(positioning, fmt.Sprintf("%s: %s focus", report.Company, insight.StrategicFocus[0]))
		}
	}
	if len(positioning) > 0 {
		b.WriteString("\nSTRATEGIC POSITIONING:\n")
		b.WriteString(strings.Join(positioning, "\n"))
		b.WriteString("\n")
	}

	return b.String(), true
}

// Investment renders the ranked recommendation with a top-pick thesis.
func (e *Engine) Investment(ctx context.Context) (string, bool) {
	reports := e.latestAll(ctx)
	if len(reports) == 0 {
		return "No financial data available for analysis.", false
	}
	rankings := Rank(reports)

	var b strings.Builder
	b.WriteString("INVESTMENT ANALYSIS REPORT\n\n")
	b.WriteString("INVESTMENT RANKINGS:\n")
	for i, r := range rankings {
		fmt.Fprintf(&b, "%d. %s (Score: %.1f/100)\n", i+1, r.Company, r.Score)
		fmt.Fprintf(&b, "   Profit Margin: %.1f%%\n", r.Metrics.ProfitMargin)
		fmt.Fprintf(&b, "   Financial Strength: %s\n", FinancialStrength(r.Metrics))
		fmt.Fprintf(&b, "   Cash Generation: %s\n\n", CashGeneration(r.Metrics))
	}

	top := rankings[0]
	fmt.Fprintf(&b, "TOP RECOMMENDATION: %s\n\n", top.Company)
	b.WriteString("INVESTMENT THESIS:\n")
	insight, hasInsight := e.knowledge.Insight(top.Company)
	if hasInsight {
		fmt.Fprintf(&b, "Strengths: %s\n", join(insight.Strengths, 0))
		fmt.Fprintf(&b, "Key Focus Areas: %s\n", join(insight.StrategicFocus, 0))
	}

	b.WriteString("\nFinancial Highlights:\n")
	switch margin := top.Metrics.ProfitMargin; {
	case margin > 20:
		fmt.Fprintf(&b, "- Exceptional profitability (%.1f%% margin)\n", margin)
	case margin > 10:
		fmt.Fprintf(&b, "- Strong profitability (%.1f%% margin)\n", margin)
	default:
		fmt.Fprintf(&b, "- Modest profitability (%.1f%% margin)\n", margin)
	}
	if top.Metrics.CashConversion > 0.7 {
		b.WriteString("- Excellent cash conversion efficiency\n")
	}
	if top.Metrics.DebtRatio < 1.5 {
		b.WriteString("- Conservative debt management\n")
	}
	writeDataGaps(&b, top.Metrics)

	if hasInsight && len(insight.Challenges) > 0 {
		b.WriteString("\nRisk Considerations:\n")
		for _, challenge := range firstN(insight.Challenges, 2) {
			fmt.Fprintf(&b, "- %s\n", challenge)
		}
	}

	b.WriteString("\nThis analysis is based on latest financial reports and industry knowledge.")
	return b.String(), true
}

func (e *Engine) guidance() string {
	return fmt.Sprintf(`I can provide analysis using financial data for %s.

Try asking:
- "Which company should I invest in?" - for investment recommendations
- "Compare Shell vs BP" - for detailed comparisons
- "How is Chevron performing?" - for specific company analysis
- "Show me the best cash flow generator" - for specific metrics

Use 'refresh' to load the latest reports if no data is available yet.`, strings.Join(e.companies, ", "))
}

func (e *Engine) mentioned(lowerText string) []string {
	var found []string
	for _, company := range e.companies {
		if e.knowledge.Mentions(lowerText, company) {
			found = append(found, company)
		}
	}
	return found
}

func (e *Engine) latest(ctx context.Context, company string) (domain.FinancialReport, bool) {
	report, err := e.store.Latest(ctx, company)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.logger.Warn("load latest report", "company", company, "error", err)
		}
		return domain.FinancialReport{}, false
	}
	report.Company = company
	return report, true
}

func (e *Engine) latestAll(ctx context.Context) []domain.FinancialReport {
	reports := make([]domain.FinancialReport, 0, len(e.companies))
	for _, company := range e.companies {
		if report, ok := e.latest(ctx, company); ok {
			reports = append(reports, report)
		}
	}
	return reports
}

func writeDataGaps(b *strings.Builder, m Metrics) {
	if !m.Degenerate() {
		return
	}
	fmt.Fprintf(b, "Data caveat: %s missing or below 1; ratios using them are floored and not meaningful.\n", strings.Join(m.Substituted, ", "))
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
