package responder

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"EnergyAnalyst/internal/analysis"
	"EnergyAnalyst/internal/domain"
)

const basePersona = `You are an expert Oil & Gas Financial Analyst with deep knowledge of the energy sector.
You specialize in analyzing financial reports, market trends, and operational metrics for major oil and gas companies including Shell, BP, ExxonMobil, and Chevron.

Your expertise includes:
- Quarterly earnings analysis and interpretation
- Cash flow and capital allocation assessment
- Production metrics and operational efficiency
- Market valuation and investment analysis
- Industry trends and competitive positioning
- Risk assessment and strategic outlook

Always provide:
1. Clear, data-driven insights
2. Context about industry trends and market conditions
3. Specific numerical analysis when data is available
4. Balanced perspective on both opportunities and risks
5. Professional tone with engaging presentation

Use relevant emojis sparingly to enhance readability but maintain professional credibility.`

var categoryFocus = map[domain.Category]string{
	domain.CategoryComparison: `For comparison queries, focus on:
- Side-by-side metric analysis
- Relative performance assessment
- Competitive positioning
- Strengths and weaknesses of each company
- Market share and strategic differences`,
	domain.CategoryPerformance: `For performance analysis, emphasize:
- Quarter-over-quarter and year-over-year trends
- Key performance indicators and their implications
- Operational efficiency and productivity metrics
- Financial health indicators
- Management execution and strategic progress`,
	domain.CategoryFinancialMetrics: `For financial metrics analysis, provide:
- Detailed breakdown of key financial ratios
- Cash flow analysis and capital allocation
- Debt management and liquidity position
- Profitability trends and margin analysis
- Return on investment and shareholder value creation`,
	domain.CategoryOperational: `For operational analysis, cover:
- Production volumes and efficiency metrics
- Cost per barrel and operational leverage
- Asset utilization and project economics
- Geographic diversification and resource base
- Technology adoption and operational innovation`,
	domain.CategoryMarketAnalysis: `For market and investment analysis, include:
- Valuation metrics and peer comparison
- Dividend policy and shareholder returns
- Stock performance and market sentiment
- ESG considerations and energy transition impact
- Investment thesis and risk-reward profile`,
	domain.CategoryRiskStrategy: `For risk and strategy analysis, address:
- Key business risks and mitigation strategies
- Regulatory and environmental challenges
- Energy transition risks and opportunities
- Geographic and political risk exposure
- Strategic initiatives and future outlook`,
	domain.CategoryTrendAnalysis: `For trend analysis, focus on:
- Historical performance patterns
- Industry cycle positioning
- Forward-looking indicators
- Structural changes in the sector
- Long-term growth and transformation trends`,
}

// SystemPrompt is the analyst persona extended with the focus block of category.
func SystemPrompt(category domain.Category) string {
	focus, ok := categoryFocus[category]
	if !ok {
		return basePersona
	}
	return basePersona + "\n\n" + focus
}

// UserPrompt serialises the evidence into labelled sections followed by the question.
func UserPrompt(evidence domain.EvidenceBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Question: %s\n\n", evidence.Question)

	if len(evidence.Latest) > 0 {
		b.WriteString("=== AVAILABLE FINANCIAL DATA ===\n")
		for _, company := range evidence.RelevantCompanies {
			report, ok := evidence.Latest[company]
			if !ok {
				continue
			}
			writeReport(&b, company, report)
		}
	}

	if len(evidence.History) > 0 {
		b.WriteString("\n=== HISTORICAL TRENDS ===\n")
		for _, company := range evidence.RelevantCompanies {
			series, ok := evidence.History[company]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n%s Historical Data:\n", company)
			for _, metric := range sortedKeys(series) {
				fmt.Fprintf(&b, "- %s Trends:\n", label(metric))
				for _, point := range series[metric] {
					fmt.Fprintf(&b, "  • %s: %s million\n", point.Period.Label(), dollars(point.Value))
				}
			}
		}
	}

	market := evidence.Market
	b.WriteString("\n=== MARKET CONTEXT ===\n")
	fmt.Fprintf(&b, "- Oil Price Environment: %s\n", orNA(market.OilPriceEnvironment))
	fmt.Fprintf(&b, "- Gas Price Environment: %s\n", orNA(market.GasPriceEnvironment))
	fmt.Fprintf(&b, "- Sector Outlook: %s\n", orNA(market.SectorOutlook))
	if len(market.KeyChallenges) > 0 {
		fmt.Fprintf(&b, "- Key Industry Challenges: %s\n", strings.Join(market.KeyChallenges, ", "))
	}
	if len(market.KeyOpportunities) > 0 {
		fmt.Fprintf(&b, "- Key Industry Opportunities: %s\n", strings.Join(market.KeyOpportunities, ", "))
	}

	b.WriteString("\n=== ANALYSIS REQUEST ===\n")
	b.WriteString("Please provide a comprehensive analysis addressing the user's question. ")
	b.WriteString("Use only the financial data provided above to support your insights. ")
	b.WriteString("Focus on actionable insights and clear explanations. ")
	b.WriteString("Include specific numbers and calculations where relevant. ")
	b.WriteString("Keep the response engaging but professional.\n")

	return b.String()
}

func writeReport(b *strings.Builder, company string, r domain.FinancialReport) {
	fmt.Fprintf(b, "\n%s Latest Financial Report:\n", company)
	if !r.Period.ReportDate.IsZero() {
		fmt.Fprintf(b, "- Report Date: %s\n", r.Period.ReportDate.Format("2006-01-02"))
	}
	fmt.Fprintf(b, "- Quarter: %s\n", r.Period.Label())
	fmt.Fprintf(b, "- Revenue: %s million\n", dollars(domain.Value(r.Revenue)))
	fmt.Fprintf(b, "- Net Income: %s million\n", dollars(domain.Value(r.NetIncome)))
	fmt.Fprintf(b, "- Operating Income: %s million\n", dollars(domain.Value(r.OperatingIncome)))
	fmt.Fprintf(b, "- Free Cash Flow: %s million\n", dollars(domain.Value(r.FreeCashFlow)))
	fmt.Fprintf(b, "- Cash & Equivalents: %s million\n", dollars(domain.Value(r.CashAndEquivalents)))
	fmt.Fprintf(b, "- Total Debt: %s million\n", dollars(domain.Value(r.TotalDebt)))
	fmt.Fprintf(b, "- Production Volume: %s %s\n", analysis.Volume(domain.Value(r.ProductionVolume)), r.Unit())

	if len(r.AdditionalMetrics) == 0 {
		return
	}
	b.WriteString("- Additional Metrics:\n")
	for _, name := range sortedKeys(r.AdditionalMetrics) {
		fmt.Fprintf(b, "  • %s: %v\n", label(name), r.AdditionalMetrics[name])
	}
}

func dollars(v float64) string {
	return strings.TrimSuffix(analysis.Millions(v), "M")
}

func label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
