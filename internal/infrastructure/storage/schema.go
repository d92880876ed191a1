package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	Driver      string
	Placeholder sq.PlaceholderFormat
	schema      []string
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT 'Oil & Gas',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL REFERENCES companies (id),
		report_type TEXT NOT NULL,
		quarter TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		report_date TEXT NOT NULL DEFAULT '',
		revenue REAL,
		net_income REAL,
		operating_income REAL,
		free_cash_flow REAL,
		total_debt REAL,
		cash_and_equivalents REAL,
		production_volume REAL,
		production_unit TEXT NOT NULL DEFAULT '',
		data_source TEXT NOT NULL DEFAULT '',
		raw_data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		written_at TEXT NOT NULL,
		UNIQUE (company_id, report_type, quarter, year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_company_date
		ON financial_reports (company_id, report_date DESC, written_at DESC)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT 'Oil & Gas',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_reports (
		id BIGSERIAL PRIMARY KEY,
		company_id BIGINT NOT NULL REFERENCES companies (id),
		report_type TEXT NOT NULL,
		quarter TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		report_date TEXT NOT NULL DEFAULT '',
		revenue DOUBLE PRECISION,
		net_income DOUBLE PRECISION,
		operating_income DOUBLE PRECISION,
		free_cash_flow DOUBLE PRECISION,
		total_debt DOUBLE PRECISION,
		cash_and_equivalents DOUBLE PRECISION,
		production_volume DOUBLE PRECISION,
		production_unit TEXT NOT NULL DEFAULT '',
		data_source TEXT NOT NULL DEFAULT '',
		raw_data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		written_at TEXT NOT NULL,
		UNIQUE (company_id, report_type, quarter, year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_company_date
		ON financial_reports (company_id, report_date DESC, written_at DESC)`,
}

// DialectFor resolves a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite", "":
		return Dialect{Driver: DriverSQLite, Placeholder: sq.Question, schema: sqliteSchema}, nil
	case DriverPostgres, "postgres", "postgresql":
		return Dialect{Driver: DriverPostgres, Placeholder: sq.Dollar, schema: postgresSchema}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
