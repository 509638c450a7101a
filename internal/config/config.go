package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Report   ReportConfig   `mapstructure:"report"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig selects where campaign workbooks are read from
type SourceConfig struct {
	Type string   `mapstructure:"type"` // "dir" or "s3"
	Dir  string   `mapstructure:"dir"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3 bucket access configuration
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	Endpoint        string `mapstructure:"endpoint"` // Empty = AWS
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AnchorOverride supplies Day 0 for a workbook whose anchor cell is missing or invalid
type AnchorOverride struct {
	File string `mapstructure:"file"`
	Date string `mapstructure:"date"` // YYYY-MM-DD
}

// AnalysisConfig holds the default view and filters
type AnalysisConfig struct {
	ExcludeNegative bool             `mapstructure:"exclude_negative"`
	Reasons         []string         `mapstructure:"reasons"`
	Weighting       string           `mapstructure:"weighting"`
	TargetCoverage  float64          `mapstructure:"target_coverage"`
	WaitDays        int              `mapstructure:"wait_days"`
	MinSampleSize   int              `mapstructure:"min_sample_size"`
	AnchorOverrides []AnchorOverride `mapstructure:"anchor_overrides"`
}

// ReportConfig holds export destinations; empty paths disable an export
type ReportConfig struct {
	JSONPath string `mapstructure:"json_path"`
	XLSXPath string `mapstructure:"xlsx_path"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"source-dir":       "source.dir",
	"exclude-negative": "analysis.exclude_negative",
	"reason":           "analysis.reasons",
	"weighting":        "analysis.weighting",
	"target":           "analysis.target_coverage",
	"wait-days":        "analysis.wait_days",
	"json-out":         "report.json_path",
	"xlsx-out":         "report.xlsx_path",
	"addr":             "server.addr",
	"log-level":        "logging.level",
	"notify":           "telegram.enabled",
}

// Load reads configuration from file, environment variables and flags.
// An empty path skips the file and relies on defaults. Flags that exist in
// the given set and were changed override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("REDRESS_ANALYZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.type", "dir")
	v.SetDefault("source.dir", "./data")
	v.SetDefault("source.s3.region", "us-east-1")

	// Analysis defaults
	v.SetDefault("analysis.exclude_negative", true)
	v.SetDefault("analysis.weighting", "pooled")
	v.SetDefault("analysis.target_coverage", 95.0)
	v.SetDefault("analysis.wait_days", 10)
	v.SetDefault("analysis.min_sample_size", 30)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Source config
	switch c.Source.Type {
	case "dir":
		if c.Source.Dir == "" {
			return fmt.Errorf("source.dir is required when source.type is dir")
		}
	case "s3":
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("source.s3.bucket is required when source.type is s3")
		}
		if (c.Source.S3.AccessKeyID == "") != (c.Source.S3.SecretAccessKey == "") {
			return fmt.Errorf("source.s3.access_key_id and source.s3.secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("source.type must be one of: dir, s3")
	}

	// Validate Analysis config
	if _, err := analysis.ParseWeighting(c.Analysis.Weighting); err != nil {
		return fmt.Errorf("analysis.weighting must be one of: pooled, percentile_average")
	}
	if err := c.Analysis.View().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if _, err := c.Analysis.Overrides(); err != nil {
		return err
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Overrides parses the anchor overrides into a map keyed by workbook file name.
func (a AnalysisConfig) Overrides() (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(a.AnchorOverrides))
	for i, o := range a.AnchorOverrides {
		if o.File == "" {
			return nil, fmt.Errorf("analysis.anchor_overrides[%d].file is required", i)
		}
		d, err := time.Parse("2006-01-02", strings.TrimSpace(o.Date))
		if err != nil {
			return nil, fmt.Errorf("analysis.anchor_overrides[%d].date must be YYYY-MM-DD: %w", i, err)
		}
		out[o.File] = d
	}
	return out, nil
}

// Filter returns the configured default filter.
func (a AnalysisConfig) Filter() analysis.Filter {
	return analysis.Filter{
		Reasons:         append([]string(nil), a.Reasons...),
		ExcludeNegative: a.ExcludeNegative,
	}
}

// View returns the configured default view.
func (a AnalysisConfig) View() analysis.View {
	return analysis.View{
		TargetCoverage: a.TargetCoverage,
		WaitDays:       a.WaitDays,
		MinSampleSize:  a.MinSampleSize,
	}
}
