package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "mealtrail.yaml"

// Config represents the top-level mealtrail.yaml configuration.
type Config struct {
	LLM         LLMConfig    `yaml:"llm"`
	TestMode    bool         `yaml:"test_mode"`
	TestFixture string       `yaml:"test_fixture"`
	Fetch       FetchConfig  `yaml:"fetch"`
	Merge       MergeConfig  `yaml:"merge"`
	Report      ReportConfig `yaml:"report"`
	Log         LogConfig    `yaml:"log"`
	Server      ServerConfig `yaml:"server"`

	// Credentials for the card service. Never written to disk.
	IDSerial    string `yaml:"-"`
	ServiceHall string `yaml:"-"`
}

// LLMConfig holds the commentary model endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// FetchConfig controls the transaction API request.
type FetchConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	PageSize       int           `yaml:"page_size"`
	StartDate      string        `yaml:"start_date"` // "YYYY-MM-DD"
	EndDate        string        `yaml:"end_date"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// MergeConfig controls how transactions are grouped into meals.
type MergeConfig struct {
	Window time.Duration `yaml:"window"`
}

// ReportConfig controls ranking sizes and display.
type ReportConfig struct {
	TopLocations  int    `yaml:"top_locations"`
	TopCounters   int    `yaml:"top_counters"`
	CounterPrefix string `yaml:"counter_prefix"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig controls `mealtrail serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL     = "BASE_URL"
	EnvModel       = "MODEL"
	EnvAPIKey      = "API_KEY"
	EnvTestMode    = "TEST_MODE"
	EnvLogLevel    = "LOG_LEVEL"
	EnvIDSerial    = "MEALTRAIL_IDSERIAL"
	EnvServiceHall = "MEALTRAIL_SERVICEHALL"
)

// Load reads a mealtrail.yaml file from disk. Fields missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, but a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for the current year.
func Default() *Config {
	year := time.Now().Year()
	return &Config{
		LLM: LLMConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
		},
		TestFixture: "log.json",
		Fetch: FetchConfig{
			Endpoint:       "https://card.tsinghua.edu.cn/business/querySelfTradeList",
			PageSize:       5000,
			StartDate:      fmt.Sprintf("%d-01-01", year),
			EndDate:        fmt.Sprintf("%d-12-31", year),
			Timeout:        30 * time.Second,
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
		},
		Merge: MergeConfig{
			Window: 120 * time.Minute,
		},
		Report: ReportConfig{
			TopLocations:  3,
			TopCounters:   5,
			CounterPrefix: "园_",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// ApplyEnv loads envFile (if it exists) into the process environment
// without overriding variables already set, then copies recognized
// variables into cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return applyLookup(cfg, os.LookupEnv)
}

func applyLookup(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvBaseURL, &cfg.LLM.BaseURL)
	str(EnvModel, &cfg.LLM.Model)
	str(EnvAPIKey, &cfg.LLM.APIKey)
	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvIDSerial, &cfg.IDSerial)
	str(EnvServiceHall, &cfg.ServiceHall)

	if v, ok := lookup(EnvTestMode); ok && v != "" {
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvTestMode, v, err)
		}
		cfg.TestMode = b
	}
	return nil
}

// Validate checks that numeric settings are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Merge.Window <= 0 {
		errs = append(errs, fmt.Errorf("merge.window must be positive, got %s", c.Merge.Window))
	}
	if c.Report.TopLocations <= 0 {
		errs = append(errs, fmt.Errorf("report.top_locations must be positive, got %d", c.Report.TopLocations))
	}
	if c.Report.TopCounters <= 0 {
		errs = append(errs, fmt.Errorf("report.top_counters must be positive, got %d", c.Report.TopCounters))
	}
	if c.Fetch.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("fetch.page_size must be positive, got %d", c.Fetch.PageSize))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("fetch.max_retries must not be negative, got %d", c.Fetch.MaxRetries))
	}
	return errors.Join(errs...)
}
