package parser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/scanner"
)

// datasetFile is the operator-maintained YAML file of reported figures.
type datasetFile struct {
	Reports []datasetReport `yaml:"reports"`
}

type datasetReport struct {
	Company            string         `yaml:"company"`
	ReportType         string         `yaml:"reportType"`
	Quarter            string         `yaml:"quarter"`
	Year               int            `yaml:"year"`
	ReportDate         string         `yaml:"reportDate"`
	Revenue            *float64       `yaml:"revenue"`
	NetIncome          *float64       `yaml:"netIncome"`
	OperatingIncome    *float64       `yaml:"operatingIncome"`
	FreeCashFlow       *float64       `yaml:"freeCashFlow"`
	TotalDebt          *float64       `yaml:"totalDebt"`
	CashAndEquivalents *float64       `yaml:"cashAndEquivalents"`
	ProductionVolume   *float64       `yaml:"productionVolume"`
	ProductionUnit     string         `yaml:"productionUnit"`
	AdditionalMetrics  map[string]any `yaml:"additionalMetrics"`
}

// FileScanner serves figures from a local YAML dataset.
type FileScanner struct {
	path string
	now  func() time.Time
}

// NewFileScanner reads the dataset at path on every scan so edits are picked up by refresh.
func NewFileScanner(path string, now func() time.Time) *FileScanner {
	if now == nil {
		now = time.Now
	}
	return &FileScanner{path: path, now: now}
}

// Name identifies the strategy inside the registry.
func (f *FileScanner) Name() string {
	return "file"
}

// Scan returns the company's most recent period as Report and older periods as Earlier.
// A missing dataset is treated as "nothing this cycle".
func (f *FileScanner) Scan(_ context.Context, req scanner.Request) (domain.Acquisition, error) {
	acq := domain.Acquisition{Company: req.Company.Name, SourceURL: f.path, FetchedAt: f.now().UTC()}

	path := f.path
	if override := req.Options["path"]; override != "" {
		path = override
		acq.SourceURL = override
	}

	reports, err := loadDataset(path, req.Company.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return acq, nil
		}
		return acq, err
	}
	if len(reports) == 0 {
		return acq, nil
	}

	acq.Report = reports[len(reports)-1]
	acq.Earlier = reports[:len(reports)-1]
	acq.Found = true
	return acq, nil
}

// loadDataset returns the company's reports ordered oldest first.
func loadDataset(path, company string) ([]domain.FinancialReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var file datasetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}

	var reports []domain.FinancialReport
	for i, entry := range file.Reports {
		if entry.Company != company {
			continue
		}
		report, err := entry.toReport()
		if err != nil {
			return nil, fmt.Errorf("dataset %s entry %d: %w", path, i, err)
		}
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Period.ReportDate.Before(reports[j].Period.ReportDate)
	})
	return reports, nil
}

func (d datasetReport) toReport() (domain.FinancialReport, error) {
	var date time.Time
	if d.ReportDate != "" {
		parsed, err := time.Parse("2006-01-02", d.ReportDate)
		if err != nil {
			return domain.FinancialReport{}, fmt.Errorf("report date %q: %w", d.ReportDate, err)
		}
		date = parsed
	}

	reportType := d.ReportType
	if reportType == "" {
		reportType = "quarterly"
	}

	return domain.FinancialReport{
		Company: d.Company,
		Period: domain.Period{
			ReportType: reportType,
			Quarter:    d.Quarter,
			Year:       d.Year,
			ReportDate: date,
		},
		Revenue:            d.Revenue,
		NetIncome:          d.NetIncome,
		OperatingIncome:    d.OperatingIncome,
		FreeCashFlow:       d.FreeCashFlow,
		TotalDebt:          d.TotalDebt,
		CashAndEquivalents: d.CashAndEquivalents,
		ProductionVolume:   d.ProductionVolume,
		ProductionUnit:     d.ProductionUnit,
		AdditionalMetrics:  d.AdditionalMetrics,
		DataSource:         domain.SourceLocalFile,
	}, nil
}
