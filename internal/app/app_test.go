package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"EnergyAnalyst/internal/config"
)

const testDataset = `reports:
  - {company: Shell, quarter: Q2, year: 2024, reportDate: 2024-08-01, revenue: 80000, netIncome: 16000, freeCashFlow: 12800, totalDebt: 10000, cashAndEquivalents: 20000, productionVolume: 3500}
  - {company: Shell, quarter: Q1, year: 2024, reportDate: 2024-05-02, revenue: 76000, netIncome: 15000}
  - {company: BP, quarter: Q2, year: 2024, reportDate: 2024-07-30, revenue: 60000, netIncome: 6000, freeCashFlow: 3000, totalDebt: 30000, cashAndEquivalents: 12000, productionVolume: 2400}
  - {company: ExxonMobil, quarter: Q2, year: 2024, reportDate: 2024-08-02, revenue: 95000, netIncome: 22000, freeCashFlow: 19000, totalDebt: 12000, cashAndEquivalents: 25000, productionVolume: 3900}
  - {company: Chevron, quarter: Q2, year: 2024, reportDate: 2024-08-02, revenue: 50000, netIncome: 12000, freeCashFlow: 7000, totalDebt: 9000, cashAndEquivalents: 20000, productionVolume: 3000}
`

func testConfig(t *testing.T) config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reports.yaml")
	if err := os.WriteFile(path, []byte(testDataset), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	var companies []config.CompanyConfig
	for _, name := range []string{"Shell", "BP", "ExxonMobil", "Chevron"} {
		companies = append(companies, config.CompanyConfig{Name: name, Scanner: "file", Sector: "Oil & Gas"})
	}

	return config.Config{
		Logging:     config.LoggingConfig{Level: "error"},
		Database:    config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"},
		LLM:         config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o"},
		Scheduler:   config.SchedulerConfig{Interval: time.Hour},
		Refresh:     config.RefreshConfig{RecentWithin: 90 * 24 * time.Hour},
		Scraper:     config.ScraperConfig{Timeout: time.Second},
		DatasetPath: path,
		Companies:   companies,
	}
}

func newTestApp(t *testing.T) *Application {
	t.Helper()

	application, err := New(context.Background(), testConfig(t), nil, WithCompleter(nil))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func TestInteractiveCompaniesCommand(t *testing.T) {
	t.Parallel()

	application := newTestApp(t)
	var out bytes.Buffer

	err := application.RunInteractive(context.Background(), strings.NewReader("companies\nexit\nHow is BP doing?\n"), &out)
	if err != nil {
		t.Fatalf("run interactive: %v", err)
	}

	if !strings.Contains(out.String(), "\nTracked companies: BP, Chevron, ExxonMobil, Shell\n") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Goodbye!") || strings.Contains(out.String(), "BP PERFORMANCE") {
		t.Fatalf("session should end at exit:\n%s", out.String())
	}
}

func TestPrepareLoadsDataAndAnswersWithoutBackend(t *testing.T) {
	t.Parallel()

	application := newTestApp(t)
	ctx := context.Background()

	if err := application.Prepare(ctx, false); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	answer := application.Ask(ctx, "Which company should I invest in?")
	if !strings.HasPrefix(answer, "💼 ") || !strings.Contains(answer, "TOP RECOMMENDATION: ExxonMobil") {
		t.Fatalf("unexpected investment answer:\n%s", answer)
	}

	answer = application.Ask(ctx, "How is Chevron performing?")
	if !strings.Contains(answer, "CHEVRON PERFORMANCE ANALYSIS") {
		t.Fatalf("unexpected performance answer:\n%s", answer)
	}

	points, err := application.store.History(ctx, "Shell", "revenue", 4)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 2 || points[0].Period.Label() != "Q2 2024" {
		t.Fatalf("dataset backfill missing: %+v", points)
	}
}

func TestAnswerWithEmptyStoreIsNeverEmpty(t *testing.T) {
	t.Parallel()

	application := newTestApp(t)

	for _, q := range []string{"Compare Shell vs BP", "What's the outlook?", "hello"} {
		if answer := application.Ask(context.Background(), q); strings.TrimSpace(answer) == "" {
			t.Fatalf("empty answer for %q", q)
		}
	}
}
