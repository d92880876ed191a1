package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/ports"
)

const (
	dateLayout = "2006-01-02"
	// fixed width so lexical order equals chronological order on every driver
	stampLayout = "2006-01-02T15:04:05.000000000Z"

	defaultReportType = "quarterly"
)

// metricColumns whitelists the report columns available to trend queries.
var metricColumns = map[string]bool{
	"revenue":              true,
	"net_income":           true,
	"operating_income":     true,
	"free_cash_flow":       true,
	"total_debt":           true,
	"cash_and_equivalents": true,
	"production_volume":    true,
}

var reportColumns = []string{
	"r.report_type", "r.quarter", "r.year", "r.report_date",
	"r.revenue", "r.net_income", "r.operating_income", "r.free_cash_flow",
	"r.total_debt", "r.cash_and_equivalents", "r.production_volume",
	"r.production_unit", "r.data_source", "r.raw_data", "r.written_at",
}

const upsertReport = `ON CONFLICT (company_id, report_type, quarter, year) DO UPDATE
	SET report_date = excluded.report_date,
	    revenue = excluded.revenue,
	    net_income = excluded.net_income,
	    operating_income = excluded.operating_income,
	    free_cash_flow = excluded.free_cash_flow,
	    total_debt = excluded.total_debt,
	    cash_and_equivalents = excluded.cash_and_equivalents,
	    production_volume = excluded.production_volume,
	    production_unit = excluded.production_unit,
	    data_source = excluded.data_source,
	    raw_data = excluded.raw_data,
	    written_at = excluded.written_at`

// SQLRepository persists companies and financial reports through database/sql.
// Writes are safe for sequential access; concurrent writers must serialise per company.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.ReportStore = (*SQLRepository)(nil)

// Option customises a repository.
type Option func(*SQLRepository)

// WithClock overrides the write-time clock.
func WithClock(now func() time.Time) Option {
	return func(r *SQLRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// Open connects to driver/dsn, applies the schema and returns a ready repository.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLRepository, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if dialect.Driver == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect.Driver == DriverSQLite {
		// one connection keeps ":memory:" databases alive and serialises writers
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := NewSQLRepository(db, dialect, opts...)
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wraps an existing connection pool. The schema is not applied.
func NewSQLRepository(db *sql.DB, dialect Dialect, opts ...Option) *SQLRepository {
	r := &SQLRepository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// SeedCompanies registers companies that are not yet present.
func (r *SQLRepository) SeedCompanies(ctx context.Context, companies []domain.Company) error {
	stamp := r.stamp()
	for _, c := range companies {
		query, args, err := r.builder.
			Insert("companies").
			Columns("name", "symbol", "sector", "created_at").
			Values(c.Name, c.Symbol, c.Sector, stamp).
			Suffix("ON CONFLICT (name) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build seed query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed company %s: %w", c.Name, err)
		}
	}
	return nil
}

// Put upserts report for company keyed by report type, quarter and year.
func (r *SQLRepository) Put(ctx context.Context, company string, report domain.FinancialReport) error {
	companyID, err := r.companyID(ctx, company)
	if err != nil {
		return err
	}

	reportType := report.Period.ReportType
	if reportType == "" {
		reportType = defaultReportType
	}
	report.Company = company
	report.Period.ReportType = reportType

	raw, err := json.Marshal(toRecord(report))
	if err != nil {
		return fmt.Errorf("marshal raw report: %w", err)
	}

	stamp := r.stamp()
	query, args, err := r.builder.
		Insert("financial_reports").
		Columns(
			"company_id", "report_type", "quarter", "year", "report_date",
			"revenue", "net_income", "operating_income", "free_cash_flow",
			"total_debt", "cash_and_equivalents", "production_volume",
			"production_unit", "data_source", "raw_data", "created_at", "written_at",
		).
		Values(
			companyID, reportType, report.Period.Quarter, report.Period.Year, formatDate(report.Period.ReportDate),
			report.Revenue, report.NetIncome, report.OperatingIncome, report.FreeCashFlow,
			report.TotalDebt, report.CashAndEquivalents, report.ProductionVolume,
			report.Unit(), report.DataSource, string(raw), stamp, stamp,
		).
		Suffix(upsertReport).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert report for %s: %w", company, err)
	}
	return nil
}

// Latest returns the report with the greatest report date, most recent write first on ties.
func (r *SQLRepository) Latest(ctx context.Context, company string) (domain.FinancialReport, error) {
	query, args, err := r.selectReports(company).
		Columns(reportColumns...).
		OrderBy("r.report_date DESC", "r.written_at DESC", "r.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.FinancialReport{}, fmt.Errorf("build latest query: %w", err)
	}

	report, err := scanReport(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FinancialReport{}, fmt.Errorf("latest report for %s: %w", company, domain.ErrNotFound)
	}
	if err != nil {
		return domain.FinancialReport{}, fmt.Errorf("latest report for %s: %w", company, err)
	}
	report.Company = company
	return report, nil
}

// History returns up to limit non-null values of metric, most recent first.
func (r *SQLRepository) History(ctx context.Context, company, metric string, limit int) ([]domain.HistoryPoint, error) {
	if !metricColumns[metric] {
		return nil, fmt.Errorf("history %s: %w", metric, domain.ErrUnknownMetric)
	}
	if limit <= 0 {
		return nil, nil
	}

	column := "r." + metric
	query, args, err := r.selectReports(company).
		Columns("r.report_type", "r.quarter", "r.year", "r.report_date", column).
		Where(sq.NotEq{column: nil}).
		OrderBy("r.report_date DESC", "r.written_at DESC", "r.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var points []domain.HistoryPoint
	for rows.Next() {
		var (
			point      domain.HistoryPoint
			reportDate string
		)
		if err := rows.Scan(&point.Period.ReportType, &point.Period.Quarter, &point.Period.Year, &reportDate, &point.Value); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan history: %w", err)
		}
		point.Period.ReportDate = parseDate(reportDate)
		points = append(points, point)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return points, nil
}

// HasRecent reports whether any report for company was written within the window.
// It looks at write time, not report date.
func (r *SQLRepository) HasRecent(ctx context.Context, company string, within time.Duration) (bool, error) {
	cutoff := r.now().Add(-within).UTC().Format(stampLayout)
	query, args, err := r.selectReports(company).
		Columns("COUNT(*)").
		Where(sq.Gt{"r.written_at": cutoff}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build recent query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count recent reports: %w", err)
	}
	return count > 0, nil
}

// ListCompanies returns every registered company ordered by name.
func (r *SQLRepository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	query, args, err := r.builder.
		Select("name", "symbol", "sector").
		From("companies").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build companies query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.Name, &c.Symbol, &c.Sector); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return companies, nil
}

func (r *SQLRepository) companyID(ctx context.Context, company string) (int64, error) {
	query, args, err := r.builder.
		Select("id").
		From("companies").
		Where(sq.Eq{"name": company}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build company query: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("store report for %s: %w", company, domain.ErrUnknownCompany)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup company %s: %w", company, err)
	}
	return id, nil
}

func (r *SQLRepository) selectReports(company string) sq.SelectBuilder {
	return r.builder.
		Select().
		From("financial_reports r").
		Join("companies c ON c.id = r.company_id").
		Where(sq.Eq{"c.name": company})
}

func (r *SQLRepository) stamp() string {
	return r.now().UTC().Format(stampLayout)
}

func scanReport(row *sql.Row) (domain.FinancialReport, error) {
	var (
		report     domain.FinancialReport
		reportDate string
		writtenAt  string
		raw        string
		revenue    sql.NullFloat64
		netIncome  sql.NullFloat64
		operating  sql.NullFloat64
		fcf        sql.NullFloat64
		debt       sql.NullFloat64
		cash       sql.NullFloat64
		production sql.NullFloat64
	)

	err := row.Scan(
		&report.Period.ReportType, &report.Period.Quarter, &report.Period.Year, &reportDate,
		&revenue, &netIncome, &operating, &fcf, &debt, &cash, &production,
		&report.ProductionUnit, &report.DataSource, &raw, &writtenAt,
	)
	if err != nil {
		return domain.FinancialReport{}, err
	}

	report.Period.ReportDate = parseDate(reportDate)
	report.Revenue = nullable(revenue)
	report.NetIncome = nullable(netIncome)
	report.OperatingIncome = nullable(operating)
	report.FreeCashFlow = nullable(fcf)
	report.TotalDebt = nullable(debt)
	report.CashAndEquivalents = nullable(cash)
	report.ProductionVolume = nullable(production)
	report.WrittenAt, _ = time.Parse(stampLayout, writtenAt)

	var record rawRecord
	if err := json.Unmarshal([]byte(raw), &record); err == nil {
		report.AdditionalMetrics = record.AdditionalMetrics
	}

	return report, nil
}

// rawRecord is the verbatim JSON copy of a stored report. It keeps fields the columns do
// not model so that future readers can recover them.
type rawRecord struct {
	Company            string         `json:"company"`
	ReportType         string         `json:"report_type"`
	Quarter            string         `json:"quarter,omitempty"`
	Year               int            `json:"year,omitempty"`
	ReportDate         string         `json:"report_date,omitempty"`
	Revenue            *float64       `json:"revenue,omitempty"`
	NetIncome          *float64       `json:"net_income,omitempty"`
	OperatingIncome    *float64       `json:"operating_income,omitempty"`
	FreeCashFlow       *float64       `json:"free_cash_flow,omitempty"`
	TotalDebt          *float64       `json:"total_debt,omitempty"`
	CashAndEquivalents *float64       `json:"cash_and_equivalents,omitempty"`
	ProductionVolume   *float64       `json:"production_volume,omitempty"`
	ProductionUnit     string         `json:"production_unit,omitempty"`
	DataSource         string         `json:"data_source,omitempty"`
	AdditionalMetrics  map[string]any `json:"additional_metrics,omitempty"`
}

func toRecord(report domain.FinancialReport) rawRecord {
	return rawRecord{
		Company:            report.Company,
		ReportType:         report.Period.ReportType,
		Quarter:            report.Period.Quarter,
		Year:               report.Period.Year,
		ReportDate:         formatDate(report.Period.ReportDate),
		Revenue:            report.Revenue,
		NetIncome:          report.NetIncome,
		OperatingIncome:    report.OperatingIncome,
		FreeCashFlow:       report.FreeCashFlow,
		TotalDebt:          report.TotalDebt,
		CashAndEquivalents: report.CashAndEquivalents,
		ProductionVolume:   report.ProductionVolume,
		ProductionUnit:     report.Unit(),
		DataSource:         report.DataSource,
		AdditionalMetrics:  report.AdditionalMetrics,
	}
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}
