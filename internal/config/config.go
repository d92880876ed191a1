package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "ENERGY_ANALYST_CONFIG"
	databaseDriver  = "DATABASE_DRIVER"
	databaseDSNEnv  = "DATABASE_DSN"
	llmProviderEnv  = "LLM_PROVIDER"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	geminiKeyEnv    = "GEMINI_API_KEY"
	logLevelEnv     = "LOG_LEVEL"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig   `yaml:"logging"`
	Database      DatabaseConfig  `yaml:"database"`
	LLM           LLMConfig       `yaml:"llm"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
	Refresh       RefreshConfig   `yaml:"refresh"`
	Scraper       ScraperConfig   `yaml:"scraper"`
	KnowledgePath string          `yaml:"knowledgePath"`
	DatasetPath   string          `yaml:"datasetPath"`
	Companies     []CompanyConfig `yaml:"companies"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the record store connection.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LLMConfig defines how to contact the generative backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	MaxTokens   int           `yaml:"maxTokens"`
	Temperature *float32      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Enabled reports whether a credential is present.
func (l LLMConfig) Enabled() bool {
	return strings.TrimSpace(l.APIKey) != ""
}

// SchedulerConfig defines how often the watch loop refreshes data.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// RefreshConfig controls the start-up freshness check.
type RefreshConfig struct {
	RecentWithin time.Duration `yaml:"recentWithin"`
}

// ScraperConfig tunes outbound page fetches.
type ScraperConfig struct {
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CompanyConfig describes a tracked company and the scanner that acquires its figures.
type CompanyConfig struct {
	Name    string            `yaml:"name"`
	Symbol  string            `yaml:"symbol"`
	Sector  string            `yaml:"sector"`
	Scanner string            `yaml:"scanner"`
	Pages   []PageConfig      `yaml:"pages"`
	Options map[string]string `yaml:"options"`
}

// PageConfig is a named page a scanner reads (earnings, investor_relations).
type PageConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CompanyNames returns the tracked companies in configured order.
func (c Config) CompanyNames() []string {
	names := make([]string, 0, len(c.Companies))
	for _, company := range c.Companies {
		names = append(names, company.Name)
	}
	return names
}

// Load reads YAML configuration from path (or $ENERGY_ANALYST_CONFIG) over the defaults
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if v := os.Getenv(geminiKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		if c.LLM.Model == "" || strings.HasPrefix(c.LLM.Model, "gpt-") {
			c.LLM.Model = "gemini-2.0-flash"
		}
	default:
		if v := os.Getenv(openAIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		if v := os.Getenv(openAIModelEnv); v != "" {
			c.LLM.Model = v
		}
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load scheduler timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

func (c Config) validate() error {
	if len(c.Companies) == 0 {
		return fmt.Errorf("config: no companies configured")
	}
	seen := map[string]bool{}
	for _, company := range c.Companies {
		if strings.TrimSpace(company.Name) == "" {
			return fmt.Errorf("config: company without a name")
		}
		if seen[company.Name] {
			return fmt.Errorf("config: duplicate company %s", company.Name)
		}
		seen[company.Name] = true
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unsupported llm provider %q", c.LLM.Provider)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("config: llm temperature %v outside [0, 2]", *t)
	}
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = strings.ToLower(override.LLM.Provider)
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.Temperature != nil {
		temperature := *override.LLM.Temperature
		base.LLM.Temperature = &temperature
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Refresh.RecentWithin > 0 {
		base.Refresh.RecentWithin = override.Refresh.RecentWithin
	}

	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.Timeout > 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}

	if override.KnowledgePath != "" {
		base.KnowledgePath = override.KnowledgePath
	}
	if override.DatasetPath != "" {
		base.DatasetPath = override.DatasetPath
	}

	if len(override.Companies) > 0 {
		base.Companies = override.Companies
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "data/financial_chatbot.db"},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o",
			MaxTokens:   2000,
			Temperature: float32Ptr(0.3),
			Timeout:     60 * time.Second,
		},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Refresh:   RefreshConfig{RecentWithin: 90 * 24 * time.Hour},
		Scraper: ScraperConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Timeout:   10 * time.Second,
		},
		DatasetPath: "data/reports.yaml",
		Companies: []CompanyConfig{
			{
				Name:    "Shell",
				Symbol:  "SHEL",
				Sector:  "Oil & Gas",
				Scanner: "earnings-page",
				Pages: []PageConfig{
					{Name: "earnings", URL: "https://www.shell.com/investors/financial-information/quarterly-results.html"},
					{Name: "investor_relations", URL: "https://www.shell.com/investors.html"},
				},
			},
			{
				Name:    "BP",
				Symbol:  "BP",
				Sector:  "Oil & Gas",
				Scanner: "earnings-page",
				Pages: []PageConfig{
					{Name: "earnings", URL: "https://www.bp.com/en/global/corporate/investors/results-and-reporting.html"},
					{Name: "investor_relations", URL: "https://www.bp.com/en/global/corporate/investors.html"},
				},
			},
			{
				Name:    "ExxonMobil",
				Symbol:  "XOM",
				Sector:  "Oil & Gas",
				Scanner: "earnings-page",
				Pages: []PageConfig{
					{Name: "earnings", URL: "https://corporate.exxonmobil.com/investors/investor-relations/quarterly-earnings"},
					{Name: "investor_relations", URL: "https://corporate.exxonmobil.com/investors"},
				},
			},
			{
				Name:    "Chevron",
				Symbol:  "CVX",
				Sector:  "Oil & Gas",
				Scanner: "earnings-page",
				Pages: []PageConfig{
					{Name: "earnings", URL: "https://www.chevron.com/investors/quarterly-earnings"},
					{Name: "investor_relations", URL: "https://www.chevron.com/investors"},
				},
			},
		},
	}
}

func float32Ptr(v float32) *float32 {
	return &v
}
