package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Database        DatabaseConfig        `yaml:"database"`
	Log             LogConfig             `yaml:"log"`
	SnapshotStorage SnapshotStorageConfig `yaml:"snapshot_storage"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotStorageConfig contains S3-compatible snapshot storage settings.
// An empty Bucket keeps snapshots local.
type SnapshotStorageConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool    `yaml:"use_ssl"`
	Prefix    string   `yaml:"prefix"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	// TextfilePath is where counters are written after each command, in the
	// Prometheus text format. Empty disables the export.
	TextfilePath string `yaml:"textfile_path"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfigPath is read when LABBOOK_CONFIG_PATH is unset.
const DefaultConfigPath = "config/labbook.yaml"

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	return load(getEnv("LABBOOK_CONFIG_PATH", DefaultConfigPath), false)
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, path, required); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	useSSL := true
	return &Config{
		Database: DatabaseConfig{
			Path: "data/labbook.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		SnapshotStorage: SnapshotStorageConfig{
			Region:    "us-east-1",
			UseSSL:    &useSSL,
			Prefix:    "labbook",
			URLExpiry: Duration(15 * time.Minute),
		},
	}
}

// loadYAMLFile loads configuration from a YAML file. A missing file is only
// an error when required is set.
func loadYAMLFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("LABBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Log
	if v := os.Getenv("LABBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LABBOOK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Snapshot storage
	if v := os.Getenv("LABBOOK_SNAPSHOT_BUCKET"); v != "" {
		cfg.SnapshotStorage.Bucket = v
	}
	if v := os.Getenv("LABBOOK_S3_ENDPOINT"); v != "" {
		cfg.SnapshotStorage.Endpoint = v
	}
	if v := os.Getenv("LABBOOK_S3_REGION"); v != "" {
		cfg.SnapshotStorage.Region = v
	}
	if v := os.Getenv("LABBOOK_S3_ACCESS_KEY"); v != "" {
		cfg.SnapshotStorage.AccessKey = v
	}
	if v := os.Getenv("LABBOOK_S3_SECRET_KEY"); v != "" {
		cfg.SnapshotStorage.SecretKey = v
	}
	if v := os.Getenv("LABBOOK_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SnapshotStorage.UseSSL = &b
		}
	}
	if v := os.Getenv("LABBOOK_S3_PREFIX"); v != "" {
		cfg.SnapshotStorage.Prefix = v
	}
	if v := os.Getenv("LABBOOK_S3_URL_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SnapshotStorage.URLExpiry = Duration(d)
		}
	}

	// Metrics
	if v := os.Getenv("LABBOOK_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.TextfilePath = v
	}
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if !contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q must be one of: %s", c.Log.Level, strings.Join(logLevels, ", ")))
	}
	if !contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q must be one of: %s", c.Log.Format, strings.Join(logFormats, ", ")))
	}
	if c.SnapshotStorage.Bucket != "" && c.SnapshotStorage.Endpoint == "" {
		errs = append(errs, errors.New("snapshot_storage.endpoint is required when a bucket is set"))
	}
	if c.SnapshotStorage.URLExpiry <= 0 {
		errs = append(errs, errors.New("snapshot_storage.url_expiry must be positive"))
	}
	return errors.Join(errs...)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
