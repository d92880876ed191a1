// Package knowledge holds the immutable keyword, insight and market tables that drive
// classification, context assembly and the deterministic analysis. The tables are loaded
// once at start-up and injected into the components that need them.
package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"EnergyAnalyst/internal/domain"
)

//go:embed defaults.yaml
var defaultTables []byte

// CategoryRule maps a category to the keywords that select it.
type CategoryRule struct {
	Category domain.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// MetricRule maps a metric tag to the keywords that select it.
type MetricRule struct {
	Tag      domain.MetricTag `yaml:"tag"`
	Keywords []string         `yaml:"keywords"`
}

// Decoration is the marker prefixed to answers of a category.
type Decoration struct {
	Prefix  string   `yaml:"prefix"`
	Markers []string `yaml:"markers"`
}

// CompanyInsight is the static strategic profile of a company.
type CompanyInsight struct {
	Strengths      []string `yaml:"strengths"`
	Challenges     []string `yaml:"challenges"`
	StrategicFocus []string `yaml:"strategicFocus"`
}

// Knowledge bundles every static table.
type Knowledge struct {
	Categories       []CategoryRule                 `yaml:"categories"`
	Metrics          []MetricRule                   `yaml:"metrics"`
	TrendKeywords    []string                       `yaml:"trendKeywords"`
	ComparisonIntent []string                       `yaml:"comparisonIntent"`
	InvestmentIntent []string                       `yaml:"investmentIntent"`
	Aliases          map[string][]string            `yaml:"aliases"`
	Decorations      map[domain.Category]Decoration `yaml:"decorations"`
	Market           domain.MarketContext           `yaml:"market"`
	Insights         map[string]CompanyInsight      `yaml:"insights"`
}

// Default returns the built-in tables.
func Default() (*Knowledge, error) {
	return parse(defaultTables)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Knowledge {
	k, err := Default()
	if err != nil {
		panic(err)
	}
	return k
}

// Load reads tables from path, or returns the defaults when path is empty.
func Load(path string) (*Knowledge, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge %s: %w", path, err)
	}
	return parse(raw)
}

// Insight returns the static profile for company, if any.
func (k *Knowledge) Insight(company string) (CompanyInsight, bool) {
	insight, ok := k.Insights[company]
	return insight, ok
}

// Mentions reports whether text (already lower-cased) names company directly or by alias.
func (k *Knowledge) Mentions(lowerText, company string) bool {
	if strings.Contains(lowerText, strings.ToLower(company)) {
		return true
	}
	for _, alias := range k.Aliases[company] {
		if alias != "" && strings.Contains(lowerText, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether lowerText contains any of keywords.
func ContainsAny(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

func parse(raw []byte) (*Knowledge, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var k Knowledge
	if err := dec.Decode(&k); err != nil {
		return nil, fmt.Errorf("parse knowledge: %w", err)
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	k.normalize()
	return &k, nil
}

func (k *Knowledge) validate() error {
	if len(k.Categories) == 0 {
		return fmt.Errorf("knowledge: no category rules")
	}
	for _, rule := range k.Categories {
		if !rule.Category.Valid() || rule.Category == domain.CategoryGeneral {
			return fmt.Errorf("knowledge: invalid category rule %q", rule.Category)
		}
	}
	for cat := range k.Decorations {
		if !cat.Valid() {
			return fmt.Errorf("knowledge: decoration for unknown category %q", cat)
		}
	}
	return nil
}

// normalize lower-cases keywords so matching is a plain substring test.
func (k *Knowledge) normalize() {
	for i := range k.Categories {
		k.Categories[i].Keywords = lower(k.Categories[i].Keywords)
	}
	for i := range k.Metrics {
		k.Metrics[i].Keywords = lower(k.Metrics[i].Keywords)
	}
	k.TrendKeywords = lower(k.TrendKeywords)
	k.ComparisonIntent = lower(k.ComparisonIntent)
	k.InvestmentIntent = lower(k.InvestmentIntent)
}

func lower(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
