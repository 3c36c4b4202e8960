// Package config provides configuration loading and validation for Granson.
// Supports YAML files with environment variable overrides.
package config

import (
	"fmt"

	"github.com/granson-io/granson/rotation"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for a Granson process.
type Config struct {
	Policy        PolicyConfig        `yaml:"policy"`
	Store         StoreConfig         `yaml:"store"`
	Sweep         SweepConfig         `yaml:"sweep"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PolicyConfig mirrors rotation.Policy in configuration form.
type PolicyConfig struct {
	Years        int    `yaml:"years" env:"GRANSON_POLICY_YEARS"`
	Months       int    `yaml:"months" env:"GRANSON_POLICY_MONTHS"`
	Weeks        int    `yaml:"weeks" env:"GRANSON_POLICY_WEEKS"`
	Days         int    `yaml:"days" env:"GRANSON_POLICY_DAYS"`
	Hours        int    `yaml:"hours" env:"GRANSON_POLICY_HOURS"`
	Minutes      int    `yaml:"minutes" env:"GRANSON_POLICY_MINUTES"`
	Seconds      int    `yaml:"seconds" env:"GRANSON_POLICY_SECONDS"`
	FirstWeekday string `yaml:"firstWeekday" env:"GRANSON_POLICY_FIRST_WEEKDAY"`
}

// Rotation converts the configured policy into a rotation.Policy.
func (p PolicyConfig) Rotation() (rotation.Policy, error) {
	policy := rotation.Policy{
		Years:   p.Years,
		Months:  p.Months,
		Weeks:   p.Weeks,
		Days:    p.Days,
		Hours:   p.Hours,
		Minutes: p.Minutes,
		Seconds: p.Seconds,
	}
	if p.FirstWeekday != "" {
		weekday, err := rotation.ParseWeekday(p.FirstWeekday)
		if err != nil {
			return rotation.Policy{}, err
		}
		policy.FirstWeekday = weekday
	}
	return policy, nil
}

type StoreConfig struct {
	Backend string       `yaml:"backend" env:"GRANSON_STORE_BACKEND"`
	Path    string       `yaml:"path" env:"GRANSON_STORE_PATH"`
	Naming  NamingConfig `yaml:"naming"`
	S3      S3Config     `yaml:"s3"`
}

type NamingConfig struct {
	Prefix string `yaml:"prefix" env:"GRANSON_NAMING_PREFIX"`
	Layout string `yaml:"layout" env:"GRANSON_NAMING_LAYOUT"`
	Suffix string `yaml:"suffix" env:"GRANSON_NAMING_SUFFIX"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket" env:"GRANSON_S3_BUCKET"`
	Region       string `yaml:"region" env:"GRANSON_S3_REGION"`
	Endpoint     string `yaml:"endpoint" env:"GRANSON_S3_ENDPOINT"`
	AccessKey    string `yaml:"accessKey" env:"GRANSON_S3_ACCESS_KEY"`
	SecretKey    string `yaml:"secretKey" env:"GRANSON_S3_SECRET_KEY"`
	UsePathStyle bool   `yaml:"usePathStyle" env:"GRANSON_S3_USE_PATH_STYLE"`
}

type SweepConfig struct {
	// Schedule is a standard 5-field cron expression. When set it takes
	// precedence over IntervalMs.
	Schedule   string `yaml:"schedule" env:"GRANSON_SWEEP_SCHEDULE"`
	IntervalMs int64  `yaml:"intervalMs" env:"GRANSON_SWEEP_INTERVAL_MS"`
	DryRun     bool   `yaml:"dryRun" env:"GRANSON_SWEEP_DRY_RUN"`

	// HistoryPath is the SQLite run log location. Empty disables history.
	HistoryPath string `yaml:"historyPath" env:"GRANSON_SWEEP_HISTORY_PATH"`
}

type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metricsAddr" env:"GRANSON_METRICS_ADDR"`
	LogLevel    string `yaml:"logLevel" env:"GRANSON_LOG_LEVEL"`
	LogFormat   string `yaml:"logFormat" env:"GRANSON_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "local",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Sweep: SweepConfig{
			IntervalMs: 24 * 60 * 60 * 1000, // daily
		},
		Observability: ObservabilityConfig{
			MetricsAddr: ":9191",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Validate rejects configurations that cannot run before anything starts.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "local":
		if c.Store.Path == "" {
			return fmt.Errorf("config: local backend requires store.path")
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("config: s3 backend requires store.s3.bucket")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	if _, err := c.Policy.Rotation(); err != nil {
		return err
	}
	counts := map[string]int{
		"years": c.Policy.Years, "months": c.Policy.Months, "weeks": c.Policy.Weeks,
		"days": c.Policy.Days, "hours": c.Policy.Hours, "minutes": c.Policy.Minutes,
		"seconds": c.Policy.Seconds,
	}
	for name, n := range counts {
		if n < 0 {
			return fmt.Errorf("config: policy.%s must not be negative, got %d", name, n)
		}
	}

	if c.Sweep.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
			return fmt.Errorf("config: invalid sweep schedule %q: %w", c.Sweep.Schedule, err)
		}
	} else if c.Sweep.IntervalMs <= 0 {
		return fmt.Errorf("config: sweep needs a schedule or a positive intervalMs")
	}

	return nil
}
