package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"EnergyAnalyst/internal/domain"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var seed = []domain.Company{
	{Name: "Shell", Symbol: "SHEL", Sector: "Oil & Gas"},
	{Name: "BP", Symbol: "BP", Sector: "Oil & Gas"},
	{Name: "ExxonMobil", Symbol: "XOM", Sector: "Oil & Gas"},
	{Name: "Chevron", Symbol: "CVX", Sector: "Oil & Gas"},
}

func newTestRepository(t *testing.T) (*SQLRepository, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	repo, err := Open(ctx, DriverSQLite, ":memory:", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.SeedCompanies(ctx, seed); err != nil {
		t.Fatalf("seed companies: %v", err)
	}
	return repo, clock
}

func quarterly(quarter string, year int, date time.Time, revenue float64) domain.FinancialReport {
	return domain.FinancialReport{
		Period: domain.Period{
			ReportType: "quarterly",
			Quarter:    quarter,
			Year:       year,
			ReportDate: date,
		},
		Revenue:    domain.Float(revenue),
		NetIncome:  domain.Float(revenue / 10),
		DataSource: domain.SourceLocalFile,
	}
}

func countReports(t *testing.T, repo *SQLRepository) int {
	t.Helper()

	var n int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM financial_reports`).Scan(&n); err != nil {
		t.Fatalf("count reports: %v", err)
	}
	return n
}

func TestPutUnknownCompany(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	err := repo.Put(ctx, "TotalEnergies", quarterly("Q1", 2024, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 100))
	if !errors.Is(err, domain.ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if n := countReports(t, repo); n != 0 {
		t.Fatalf("expected empty store, got %d reports", n)
	}
}

func TestLatestUsesReportDate(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()

	newer := quarterly("Q2", 2024, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 200)
	older := quarterly("Q1", 2024, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 100)

	if err := repo.Put(ctx, "Shell", newer); err != nil {
		t.Fatalf("put newer: %v", err)
	}
	clock.Advance(time.Hour)
	// written later but reports an earlier period
	if err := repo.Put(ctx, "Shell", older); err != nil {
		t.Fatalf("put older: %v", err)
	}

	got, err := repo.Latest(ctx, "Shell")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Period.Quarter != "Q2" || domain.Value(got.Revenue) != 200 {
		t.Fatalf("unexpected latest report: %+v", got.Period)
	}
	if got.Company != "Shell" || got.ProductionUnit != domain.DefaultProductionUnit {
		t.Fatalf("unexpected company/unit: %s %s", got.Company, got.ProductionUnit)
	}
}

func TestLatestTieBrokenByWriteTime(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()
	date := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	interim := quarterly("Q2", 2024, date, 100)
	interim.Period.ReportType = "interim"
	if err := repo.Put(ctx, "BP", interim); err != nil {
		t.Fatalf("put interim: %v", err)
	}
	clock.Advance(time.Minute)
	if err := repo.Put(ctx, "BP", quarterly("Q2", 2024, date, 150)); err != nil {
		t.Fatalf("put quarterly: %v", err)
	}

	got, err := repo.Latest(ctx, "BP")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Period.ReportType != "quarterly" || domain.Value(got.Revenue) != 150 {
		t.Fatalf("expected most recent write to win, got %s %v", got.Period.ReportType, domain.Value(got.Revenue))
	}
}

func TestLatestNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.Latest(context.Background(), "Chevron")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutIsIdempotentPerPeriod(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()
	date := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)

	first := quarterly("Q3", 2024, date, 100)
	first.AdditionalMetrics = map[string]any{"dividend_per_share": 0.9}
	if err := repo.Put(ctx, "ExxonMobil", first); err != nil {
		t.Fatalf("first put: %v", err)
	}

	clock.Advance(time.Hour)
	second := quarterly("Q3", 2024, date, 300)
	second.TotalDebt = domain.Float(40000)
	second.AdditionalMetrics = map[string]any{"dividend_per_share": 0.95, "segment": "upstream"}
	if err := repo.Put(ctx, "ExxonMobil", second); err != nil {
		t.Fatalf("second put: %v", err)
	}

	if n := countReports(t, repo); n != 1 {
		t.Fatalf("expected exactly one report, got %d", n)
	}

	got, err := repo.Latest(ctx, "ExxonMobil")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if domain.Value(got.Revenue) != 300 || domain.Value(got.TotalDebt) != 40000 {
		t.Fatalf("second write did not win: revenue=%v debt=%v", domain.Value(got.Revenue), domain.Value(got.TotalDebt))
	}
	if got.AdditionalMetrics["dividend_per_share"] != 0.95 || got.AdditionalMetrics["segment"] != "upstream" {
		t.Fatalf("unexpected additional metrics: %v", got.AdditionalMetrics)
	}
	if !got.WrittenAt.Equal(clock.now) {
		t.Fatalf("written_at = %v, want %v", got.WrittenAt, clock.now)
	}
}

func TestHistory(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	quarters := []struct {
		quarter string
		year    int
		month   time.Month
	}{
		{"Q1", 2023, time.March}, {"Q2", 2023, time.June}, {"Q3", 2023, time.September},
		{"Q4", 2023, time.December}, {"Q1", 2024, time.March}, {"Q2", 2024, time.June},
	}
	for i, q := range quarters {
		report := quarterly(q.quarter, q.year, time.Date(q.year, q.month, 28, 0, 0, 0, 0, time.UTC), float64(100*(i+1)))
		if err := repo.Put(ctx, "Chevron", report); err != nil {
			t.Fatalf("put %s %d: %v", q.quarter, q.year, err)
		}
	}
	// a newer period without revenue must be skipped
	gap := quarterly("Q3", 2024, time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), 0)
	gap.Revenue = nil
	if err := repo.Put(ctx, "Chevron", gap); err != nil {
		t.Fatalf("put gap: %v", err)
	}

	points, err := repo.History(ctx, "Chevron", "revenue", 4)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}

	wantLabels := []string{"Q2 2024", "Q1 2024", "Q4 2023", "Q3 2023"}
	wantValues := []float64{600, 500, 400, 300}
	for i, p := range points {
		if p.Period.Label() != wantLabels[i] || p.Value != wantValues[i] {
			t.Fatalf("point %d = %s %v, want %s %v", i, p.Period.Label(), p.Value, wantLabels[i], wantValues[i])
		}
	}

	netIncome, err := repo.History(ctx, "Chevron", "net_income", 10)
	if err != nil {
		t.Fatalf("net income history: %v", err)
	}
	if len(netIncome) != 7 {
		t.Fatalf("expected 7 net income points, got %d", len(netIncome))
	}
}

func TestHistoryRejectsUnknownMetric(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.History(context.Background(), "Shell", "revenue; DROP TABLE companies", 4)
	if !errors.Is(err, domain.ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestHasRecentUsesWriteTime(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()

	// an old period written now still counts as recent
	backfill := quarterly("Q1", 2019, time.Date(2019, 3, 31, 0, 0, 0, 0, time.UTC), 100)
	if err := repo.Put(ctx, "Shell", backfill); err != nil {
		t.Fatalf("put: %v", err)
	}

	recent, err := repo.HasRecent(ctx, "Shell", 90*24*time.Hour)
	if err != nil {
		t.Fatalf("has recent: %v", err)
	}
	if !recent {
		t.Fatalf("expected recent data right after write")
	}

	clock.Advance(91 * 24 * time.Hour)
	recent, err = repo.HasRecent(ctx, "Shell", 90*24*time.Hour)
	if err != nil {
		t.Fatalf("has recent: %v", err)
	}
	if recent {
		t.Fatalf("expected data to be stale after 91 days")
	}

	if recent, _ := repo.HasRecent(ctx, "BP", 90*24*time.Hour); recent {
		t.Fatalf("company without reports reported recent data")
	}
}

func TestListCompaniesAlphabetical(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	// seeding twice must not duplicate rows
	if err := repo.SeedCompanies(ctx, seed); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	companies, err := repo.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}

	want := []string{"BP", "Chevron", "ExxonMobil", "Shell"}
	if len(companies) != len(want) {
		t.Fatalf("expected %d companies, got %d", len(want), len(companies))
	}
	for i, c := range companies {
		if c.Name != want[i] {
			t.Fatalf("company %d = %s, want %s", i, c.Name, want[i])
		}
	}
	if companies[2].Symbol != "XOM" {
		t.Fatalf("unexpected symbol for ExxonMobil: %s", companies[2].Symbol)
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "sqlite", "sqlite3"} {
		d, err := DialectFor(name)
		if err != nil || d.Driver != DriverSQLite {
			t.Fatalf("DialectFor(%q) = %v, %v", name, d.Driver, err)
		}
	}
	if d, err := DialectFor("postgres"); err != nil || d.Driver != DriverPostgres {
		t.Fatalf("DialectFor(postgres) = %v, %v", d.Driver, err)
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
