package domain

import "time"

// Acquisition is the partial result of fetching figures for one company.
// Found is false when the source had nothing to offer this cycle.
type Acquisition struct {
	Company string
	Report  FinancialReport
	// Earlier carries older periods a source happens to know about (backfill).
	Earlier   []FinancialReport
	SourceURL string
	FetchedAt time.Time
	Found     bool
}
