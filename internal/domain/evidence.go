package domain

// MetricTag names a metric family a question refers to.
type MetricTag string

const (
	MetricRevenue    MetricTag = "revenue"
	MetricNetIncome  MetricTag = "net_income"
	MetricCashFlow   MetricTag = "cash_flow"
	MetricProduction MetricTag = "production"
	MetricDebt       MetricTag = "debt"
	MetricDividend   MetricTag = "dividend"
)

// MarketContext is a fixed qualitative block. It is illustrative, not live market data.
type MarketContext struct {
	OilPriceEnvironment string   `yaml:"oilPriceEnvironment"`
	GasPriceEnvironment string   `yaml:"gasPriceEnvironment"`
	SectorOutlook       string   `yaml:"sectorOutlook"`
	KeyChallenges       []string `yaml:"keyChallenges"`
	KeyOpportunities    []string `yaml:"keyOpportunities"`
}

// EvidenceBundle is built per question and never persisted.
type EvidenceBundle struct {
	Question          string
	RelevantCompanies []string
	RelevantMetrics   []MetricTag
	Latest            map[string]FinancialReport
	// History is keyed by company, then by report column name.
	History map[string]map[string][]HistoryPoint
	Market  MarketContext
}

// HasCompany reports whether name is among the relevant companies.
func (b EvidenceBundle) HasCompany(name string) bool {
	for _, c := range b.RelevantCompanies {
		if c == name {
			return true
		}
	}
	return false
}

// HasMetric reports whether tag is among the relevant metrics.
func (b EvidenceBundle) HasMetric(tag MetricTag) bool {
	for _, m := range b.RelevantMetrics {
		if m == tag {
			return true
		}
	}
	return false
}
