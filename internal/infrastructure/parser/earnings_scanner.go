package parser

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"EnergyAnalyst/internal/domain"
	"EnergyAnalyst/internal/scanner"
)

const (
	earningsPage         = "earnings"
	investorRelationPage = "investor_relations"
)

type figure int

const (
	monetary figure = iota
	volume
)

type metricPattern struct {
	name     string
	kind     figure
	patterns []*regexp.Regexp
}

const (
	amount     = `\$?([0-9][0-9,]*\.?[0-9]*)\s*`
	moneyUnit  = `(billion|million|thousand|bn|b|m|k)\b`
	volumeUnit = `(thousand|million|mm|k|m)?\s*(?:boe|barrels|bpd)`
)

// Patterns are tried in order; the first match per metric wins.
var metricPatterns = []metricPattern{
	{name: "revenue", kind: monetary, patterns: compile(
		`total revenues?[:\s]+`+amount+moneyUnit,
		`revenues?[:\s]+`+amount+moneyUnit,
		`sales[:\s]+`+amount+moneyUnit,
	)},
	{name: "net_income", kind: monetary, patterns: compile(
		`net income[:\s]+`+amount+moneyUnit,
		`net earnings[:\s]+`+amount+moneyUnit,
		`profit[:\s]+`+amount+moneyUnit,
	)},
	{name: "free_cash_flow", kind: monetary, patterns: compile(
		`free cash flow[:\s]+`+amount+moneyUnit,
		`operating cash flow[:\s]+`+amount+moneyUnit,
	)},
	{name: "production", kind: volume, patterns: compile(
		`oil production[:\s]+`+amount+volumeUnit,
		`production[:\s]+`+amount+volumeUnit,
	)},
}

var (
	positiveSignals = []string{"growth", "increase", "strong", "improved", "profit", "positive", "success"}
	negativeSignals = []string{"decline", "decrease", "weak", "loss", "negative", "challenge", "concern"}
	whitespace      = regexp.MustCompile(`\s+`)
)

// EarningsScanner reads a company's official earnings page and extracts headline figures.
type EarningsScanner struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewEarningsScanner wires an HTTP client; now defaults to time.Now.
func NewEarningsScanner(client *http.Client, userAgent string, now func() time.Time) *EarningsScanner {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if userAgent == "" {
		userAgent = "EnergyAnalyst/1.0"
	}
	if now == nil {
		now = time.Now
	}
	return &EarningsScanner{client: client, userAgent: userAgent, now: now}
}

// Name identifies the strategy inside the registry.
func (e *EarningsScanner) Name() string {
	return "earnings-page"
}

// Scan fetches the earnings page. Nothing recognisable on the page yields Found=false, never
// invented numbers. The investor relations page, when configured, adds a keyword sentiment.
func (e *EarningsScanner) Scan(ctx context.Context, req scanner.Request) (domain.Acquisition, error) {
	page, ok := req.Page(earningsPage)
	if !ok {
		return domain.Acquisition{}, fmt.Errorf("company %s: no %s page configured", req.Company.Name, earningsPage)
	}

	fetchedAt := e.now().UTC()
	acq := domain.Acquisition{Company: req.Company.Name, SourceURL: page.URL, FetchedAt: fetchedAt}

	text, err := e.pageText(ctx, page.URL)
	if err != nil {
		return acq, fmt.Errorf("earnings page %s: %w", req.Company.Name, err)
	}

	values := ExtractFigures(text)
	if len(values) == 0 {
		return acq, nil
	}

	report := domain.FinancialReport{
		Company:           req.Company.Name,
		Period:            currentQuarter(fetchedAt),
		ProductionUnit:    domain.DefaultProductionUnit,
		DataSource:        domain.SourceOfficialScraping,
		AdditionalMetrics: map[string]any{},
	}
	if v, ok := values["revenue"]; ok {
		report.Revenue = domain.Float(v)
	}
	if v, ok := values["net_income"]; ok {
		report.NetIncome = domain.Float(v)
	}
	if v, ok := values["free_cash_flow"]; ok {
		report.FreeCashFlow = domain.Float(v)
	}
	if v, ok := values["production"]; ok {
		report.ProductionVolume = domain.Float(v)
	}
	if req.Company.Symbol != "" {
		report.AdditionalMetrics["symbol"] = req.Company.Symbol
	}

	if ir, ok := req.Page(investorRelationPage); ok {
		if irText, err := e.pageText(ctx, ir.URL); err == nil {
			score, label := Sentiment(irText)
			report.AdditionalMetrics["ir_sentiment"] = label
			report.AdditionalMetrics["ir_sentiment_score"] = score
		}
	}

	acq.Report = report
	acq.Found = true
	return acq, nil
}

func (e *EarningsScanner) pageText(ctx context.Context, pageURL string) (string, error) {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer").Remove()
	return whitespace.ReplaceAllString(doc.Find("body").Text(), " "), nil
}

func (e *EarningsScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// ExtractFigures pulls headline figures out of page text. Money is normalised to millions
// and production to thousand BOE/day.
func ExtractFigures(text string) map[string]float64 {
	lower := strings.ToLower(text)
	values := map[string]float64{}

	for _, metric := range metricPatterns {
		for _, re := range metric.patterns {
			match := re.FindStringSubmatch(lower)
			if match == nil {
				continue
			}
			value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
			if err != nil {
				continue
			}
			switch metric.kind {
			case monetary:
				value = toMillions(value, match[2])
			case volume:
				value = toThousandBOE(value, match[2])
			}
			values[metric.name] = value
			break
		}
	}

	return values
}

// Sentiment scores text by counting positive and negative signal words.
func Sentiment(text string) (float64, string) {
	lower := strings.ToLower(text)
	var positive, negative int
	for _, word := range positiveSignals {
		positive += strings.Count(lower, word)
	}
	for _, word := range negativeSignals {
		negative += strings.Count(lower, word)
	}

	score := float64(positive-negative) / math.Max(float64(positive+negative), 1)
	score = math.Round(score*100) / 100
	switch {
	case score > 0.1:
		return score, "positive"
	case score < -0.1:
		return score, "negative"
	default:
		return score, "neutral"
	}
}

func toMillions(v float64, unit string) float64 {
	switch unit {
	case "billion", "bn", "b":
		return v * 1000
	case "thousand", "k":
		return v / 1000
	default:
		return v
	}
}

func toThousandBOE(v float64, unit string) float64 {
	switch unit {
	case "million", "mm":
		return v * 1000
	case "thousand", "k", "m":
		return v
	default:
		return v / 1000
	}
}

func currentQuarter(now time.Time) domain.Period {
	return domain.Period{
		ReportType: "quarterly",
		Quarter:    "Q" + strconv.Itoa((int(now.Month())-1)/3+1),
		Year:       now.Year(),
		ReportDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}
