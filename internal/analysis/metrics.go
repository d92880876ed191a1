package analysis

import (
	"math"

	"EnergyAnalyst/internal/domain"
)

// Denominators that may be floored at 1 when the reported figure is missing or too small.
const (
	FlooredRevenue    = "revenue"
	FlooredNetIncome  = "net income"
	FlooredCash       = "cash"
	FlooredProduction = "production"
)

// Metrics are the derived ratios used for banding and scoring.
type Metrics struct {
	ProfitMargin   float64
	CashConversion float64
	DebtRatio      float64
	RevenuePerBOE  float64
	// Substituted lists denominators that were floored at 1. Ratios built on them are
	// not meaningful and narratives say so.
	Substituted []string
}

// Degenerate reports whether any ratio relied on a floored denominator.
func (m Metrics) Degenerate() bool {
	return len(m.Substituted) > 0
}

// Compute derives ratios from a report. Denominators are floored at 1 so that a report
// with zero revenue or cash produces extreme ratios instead of a division by zero.
func Compute(report domain.FinancialReport) Metrics {
	var m Metrics

	revenue := floor(domain.Value(report.Revenue), FlooredRevenue, &m.Substituted)
	netIncome := domain.Value(report.NetIncome)
	fcf := domain.Value(report.FreeCashFlow)
	debt := domain.Value(report.TotalDebt)
	cash := floor(domain.Value(report.CashAndEquivalents), FlooredCash, &m.Substituted)

	m.ProfitMargin = netIncome * 100 / revenue
	m.CashConversion = fcf / floor(netIncome, FlooredNetIncome, &m.Substituted)
	m.DebtRatio = debt / cash
	m.RevenuePerBOE = revenue / floor(domain.Value(report.ProductionVolume), FlooredProduction, &m.Substituted) * 1000

	return m
}

func floor(v float64, name string, substituted *[]string) float64 {
	if v >= 1 {
		return v
	}
	*substituted = append(*substituted, name)
	return 1
}

// Profitability bands the profit margin (percent).
func Profitability(m Metrics) string {
	switch margin := m.ProfitMargin; {
	case margin > 25:
		return "Exceptional"
	case margin > 15:
		return "Strong"
	case margin > 10:
		return "Good"
	case margin > 5:
		return "Fair"
	default:
		return "Weak"
	}
}

// FinancialStrength bands the debt ratio; lower is better.
func FinancialStrength(m Metrics) string {
	switch ratio := m.DebtRatio; {
	case ratio < 1:
		return "Very Strong"
	case ratio < 1.5:
		return "Strong"
	case ratio < 2.5:
		return "Moderate"
	default:
		return "Weak"
	}
}

// CashGeneration bands the free-cash-flow conversion.
func CashGeneration(m Metrics) string {
	switch conversion := m.CashConversion; {
	case conversion > 0.8:
		return "Excellent"
	case conversion > 0.6:
		return "Good"
	case conversion > 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}

// Grade is an investment grade with its recommendation and rationale.
type Grade struct {
	Action string
	Reason string
}

func (g Grade) String() string {
	return g.Action + " - " + g.Reason
}

// InvestmentGrade combines margin and leverage into a recommendation.
func InvestmentGrade(m Metrics) Grade {
	switch {
	case m.ProfitMargin > 20 && m.DebtRatio < 1.5:
		return Grade{Action: "BUY", Reason: "Strong fundamentals"}
	case m.ProfitMargin > 15 && m.DebtRatio < 2:
		return Grade{Action: "HOLD", Reason: "Good fundamentals"}
	case m.ProfitMargin > 10:
		return Grade{Action: "HOLD", Reason: "Fair fundamentals"}
	default:
		return Grade{Action: "CAUTION", Reason: "Weak fundamentals"}
	}
}

// RawScore is the unbounded composite investment score:
// profitability up to 40, cash conversion up to 30, leverage up to 30.
// Negative margins make it negative.
func RawScore(m Metrics) float64 {
	profitability := math.Min(m.ProfitMargin*2, 40)
	cash := math.Min(math.Abs(m.CashConversion)*30, 30)
	leverage := math.Max(30-m.DebtRatio*10, 0)
	return profitability + cash + leverage
}

// Score is RawScore clamped to [0, 100] for display.
func Score(m Metrics) float64 {
	return math.Max(0, math.Min(RawScore(m), 100))
}
