package domain

// Category is the analysis category a question is classified into.
type Category string

const (
	CategoryComparison       Category = "comparison"
	CategoryPerformance      Category = "performance"
	CategoryFinancialMetrics Category = "financial_metrics"
	CategoryOperational      Category = "operational"
	CategoryMarketAnalysis   Category = "market_analysis"
	CategoryRiskStrategy     Category = "risk_strategy"
	CategoryTrendAnalysis    Category = "trend_analysis"
	CategoryGeneral          Category = "general"
)

// Categories lists every category in classification priority order.
func Categories() []Category {
	return []Category{
		CategoryComparison,
		CategoryPerformance,
		CategoryFinancialMetrics,
		CategoryOperational,
		CategoryMarketAnalysis,
		CategoryRiskStrategy,
		CategoryTrendAnalysis,
		CategoryGeneral,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
