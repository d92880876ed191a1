package analysis

import (
	"sort"

	"EnergyAnalyst/internal/domain"
)

// Ranking is a company's investment score and the metrics behind it. Score is the
// displayed value; Raw is the unclamped composite used for ordering.
type Ranking struct {
	Company string
	Score   float64
	Raw     float64
	Metrics Metrics
	Report  domain.FinancialReport
}

// Rank scores reports and orders them by descending raw score. The sort is stable, so ties
// keep the order of the input slice.
func Rank(reports []domain.FinancialReport) []Ranking {
	ranked := make([]Ranking, 0, len(reports))
	for _, report := range reports {
		m := Compute(report)
		ranked = append(ranked, Ranking{
			Company: report.Company,
			Score:   Score(m),
			Raw:     RawScore(m),
			Metrics: m,
			Report:  report,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Raw > ranked[j].Raw
	})
	return ranked
}

// Leader returns the report with the highest value for metric; the first report wins ties.
func Leader(reports []domain.FinancialReport, metric func(domain.FinancialReport) float64) (domain.FinancialReport, bool) {
	if len(reports) == 0 {
		return domain.FinancialReport{}, false
	}
	best := reports[0]
	for _, report := range reports[1:] {
		if metric(report) > metric(best) {
			best = report
		}
	}
	return best, true
}
