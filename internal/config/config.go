package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an optional YAML file applied before the environment.
const EnvConfigFile = "SUPERDASH_CONFIG"

type Config struct {
	// HTTP server
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Dataset
	DataSource   string `yaml:"data_source"`
	DataPath     string `yaml:"data_path"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// Google Sheets
	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id"`
	GoogleSheetRange         string `yaml:"google_sheet_range"`
	GoogleServiceAccountJSON string `yaml:"-"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file"`

	// AMQP export events; disabled when AMQPURL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Downloads
	ExportFormat       string        `yaml:"export_format"`
	DownloadRateLimit  int           `yaml:"download_rate_limit"`
	DownloadRateWindow time.Duration `yaml:"download_rate_window"`

	// Chart image cache
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:               "8050",
		ShutdownTimeout:    30 * time.Second,
		DataSource:         "csv",
		DataPath:           "./data/superstore.csv",
		SQLiteDBPath:       "./data/superdash.db",
		GoogleSheetRange:   "A:ZZ",
		AMQPExchange:       "superdash",
		AMQPQueue:          "export_events",
		ExportFormat:       "csv",
		DownloadRateLimit:  30,
		DownloadRateWindow: time.Minute,
		CacheSize:          64,
		CacheTTL:           10 * time.Minute,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load applies, in order, the defaults, the YAML file named by
// SUPERDASH_CONFIG and the environment.
func Load() (*Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyFile overlays the YAML file at path. Keys absent from the file keep
// their current value.
func (c *Config) ApplyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields whose environment variable is set.
func (c *Config) ApplyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.DataSource = getEnv("DATA_SOURCE", c.DataSource)
	c.DataPath = getEnv("DATA_PATH", c.DataPath)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleSheetRange = getEnv("GOOGLE_SHEET_RANGE", c.GoogleSheetRange)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.ExportFormat = getEnv("EXPORT_FORMAT", c.ExportFormat)
	c.DownloadRateLimit = getEnvInt("DOWNLOAD_RATE_LIMIT", c.DownloadRateLimit)
	c.DownloadRateWindow = getEnvDuration("DOWNLOAD_RATE_WINDOW", c.DownloadRateWindow)

	c.CacheSize = getEnvInt("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validSources := []string{"csv", "sqlite", "sheets", "memory"}
	if !contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case "csv":
		if c.DataPath == "" {
			errors = append(errors, "DATA_PATH is required when using the csv data source")
		} else if _, err := os.Stat(c.DataPath); err != nil {
			errors = append(errors, fmt.Sprintf("data file '%s' is not readable: %v", c.DataPath, err))
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using the sqlite data source")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using the sheets data source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be set for the sheets data source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.ExportFormat)) {
	case "", "csv", "xlsx", "excel":
	default:
		errors = append(errors, fmt.Sprintf("invalid export format '%s': must be csv or xlsx", c.ExportFormat))
	}

	if c.DownloadRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid download rate limit %d: must be at least 1", c.DownloadRateLimit))
	}
	if c.DownloadRateWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid download rate window %v: must be at least 1 second", c.DownloadRateWindow))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether export events should be published.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
