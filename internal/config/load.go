package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds a Config from defaults and environment variables, for running
// without a config file.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML config file over the defaults, then applies
// environment overrides on top.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from GRANSON_* environment variables.
func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"GRANSON_STORE_BACKEND":        &cfg.Store.Backend,
		"GRANSON_STORE_PATH":           &cfg.Store.Path,
		"GRANSON_NAMING_PREFIX":        &cfg.Store.Naming.Prefix,
		"GRANSON_NAMING_LAYOUT":        &cfg.Store.Naming.Layout,
		"GRANSON_NAMING_SUFFIX":        &cfg.Store.Naming.Suffix,
		"GRANSON_S3_BUCKET":            &cfg.Store.S3.Bucket,
		"GRANSON_S3_REGION":            &cfg.Store.S3.Region,
		"GRANSON_S3_ENDPOINT":          &cfg.Store.S3.Endpoint,
		"GRANSON_S3_ACCESS_KEY":        &cfg.Store.S3.AccessKey,
		"GRANSON_S3_SECRET_KEY":        &cfg.Store.S3.SecretKey,
		"GRANSON_POLICY_FIRST_WEEKDAY": &cfg.Policy.FirstWeekday,
		"GRANSON_SWEEP_SCHEDULE":       &cfg.Sweep.Schedule,
		"GRANSON_SWEEP_HISTORY_PATH":   &cfg.Sweep.HistoryPath,
		"GRANSON_METRICS_ADDR":         &cfg.Observability.MetricsAddr,
		"GRANSON_LOG_LEVEL":            &cfg.Observability.LogLevel,
		"GRANSON_LOG_FORMAT":           &cfg.Observability.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GRANSON_POLICY_YEARS":   &cfg.Policy.Years,
		"GRANSON_POLICY_MONTHS":  &cfg.Policy.Months,
		"GRANSON_POLICY_WEEKS":   &cfg.Policy.Weeks,
		"GRANSON_POLICY_DAYS":    &cfg.Policy.Days,
		"GRANSON_POLICY_HOURS":   &cfg.Policy.Hours,
		"GRANSON_POLICY_MINUTES": &cfg.Policy.Minutes,
		"GRANSON_POLICY_SECONDS": &cfg.Policy.Seconds,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("GRANSON_SWEEP_INTERVAL_MS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: GRANSON_SWEEP_INTERVAL_MS=%q is not an integer: %w", v, err)
		}
		cfg.Sweep.IntervalMs = n
	}
	if v, ok := os.LookupEnv("GRANSON_SWEEP_DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: GRANSON_SWEEP_DRY_RUN=%q is not a boolean: %w", v, err)
		}
		cfg.Sweep.DryRun = b
	}
	if v, ok := os.LookupEnv("GRANSON_S3_USE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: GRANSON_S3_USE_PATH_STYLE=%q is not a boolean: %w", v, err)
		}
		cfg.Store.S3.UsePathStyle = b
	}

	return nil
}
