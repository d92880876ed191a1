package domain

import (
	"strconv"
	"time"
)

// DefaultProductionUnit is the only production unit tracked by the system.
const DefaultProductionUnit = "thousand BOE/day"

// Data provenance tags written to FinancialReport.DataSource.
const (
	SourceOfficialScraping = "official_scraping"
	SourceLocalFile        = "local_file"
)

// Company is a tracked reference entity. Companies are seeded once and never deleted.
type Company struct {
	Name   string
	Symbol string
	Sector string
}

// Period identifies a reporting period. ReportDate is the ordering key; Quarter and Year
// are display metadata that also form the upsert identity.
type Period struct {
	ReportType string
	Quarter    string
	Year       int
	ReportDate time.Time
}

// Label renders the period as "Q3 2024".
func (p Period) Label() string {
	switch {
	case p.Quarter != "" && p.Year != 0:
		return p.Quarter + " " + strconv.Itoa(p.Year)
	case p.Year != 0:
		return strconv.Itoa(p.Year)
	default:
		return p.Quarter
	}
}

// FinancialReport holds one report per company and period. Monetary amounts are in
// millions; nil means the figure was not reported.
type FinancialReport struct {
	Company            string
	Period             Period
	Revenue            *float64
	NetIncome          *float64
	OperatingIncome    *float64
	FreeCashFlow       *float64
	TotalDebt          *float64
	CashAndEquivalents *float64
	ProductionVolume   *float64
	ProductionUnit     string
	AdditionalMetrics  map[string]any
	DataSource         string
	WrittenAt          time.Time
}

// HasHeadlineFigures reports whether any of revenue, net income or production is present.
func (r FinancialReport) HasHeadlineFigures() bool {
	return r.Revenue != nil || r.NetIncome != nil || r.ProductionVolume != nil
}

// Unit returns the production unit, defaulting to thousand BOE/day.
func (r FinancialReport) Unit() string {
	if r.ProductionUnit == "" {
		return DefaultProductionUnit
	}
	return r.ProductionUnit
}

// HistoryPoint is a single (period, value) pair returned by trend queries.
type HistoryPoint struct {
	Period Period
	Value  float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences an optional amount, treating nil as zero.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
