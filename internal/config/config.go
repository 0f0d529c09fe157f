package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port" env:"PORT"`
	GinMode        string   `yaml:"gin_mode" env:"GIN_MODE"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type" env:"DB_TYPE"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host" env:"MYSQL_HOST"`
	Port     int    `yaml:"port" env:"MYSQL_PORT"`
	User     string `yaml:"user" env:"MYSQL_USER"`
	Password string `yaml:"password" env:"MYSQL_PASSWORD"`
	Database string `yaml:"database" env:"MYSQL_DATABASE"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host" env:"PGHOST"`
	Port     int    `yaml:"port" env:"PGPORT"`
	User     string `yaml:"user" env:"PGUSER"`
	Password string `yaml:"password" env:"PGPASSWORD"`
	Database string `yaml:"database" env:"PGDATABASE"`
	SSLMode  string `yaml:"sslmode" env:"PGSSLMODE"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings.
// An empty Host disables full-text archive search.
type MeilisearchConfig struct {
	Host   string `yaml:"host" env:"MEILISEARCH_HOST"`
	APIKey string `yaml:"api_key" env:"MEILISEARCH_KEY"`
	Index  string `yaml:"index" env:"MEILISEARCH_INDEX"`
}

// RateLimitConfig throttles anonymous write endpoints (analyze, recommend)
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	RequestsPerHour   int  `yaml:"requests_per_hour" env:"RATE_LIMIT_PER_HOUR"`
	RequestsPerDay    int  `yaml:"requests_per_day" env:"RATE_LIMIT_PER_DAY"`
}

// CleanupConfig contains settings for purging long-expired analyses
type CleanupConfig struct {
	RetentionDays    int  `yaml:"retention_days" env:"CLEANUP_RETENTION_DAYS"`
	MaxDeletionCount int  `yaml:"max_deletion_count" env:"CLEANUP_MAX_DELETION_COUNT"`
	DryRun           bool `yaml:"dry_run" env:"CLEANUP_DRY_RUN"`
}

// SchedulerConfig contains the daily job times (HH:MM, server local time)
type SchedulerConfig struct {
	CleanupEnabled bool   `yaml:"cleanup_enabled" env:"SCHEDULER_CLEANUP_ENABLED"`
	CleanupTime    string `yaml:"cleanup_time" env:"SCHEDULER_CLEANUP_TIME"`
	ReindexEnabled bool   `yaml:"reindex_enabled" env:"SCHEDULER_REINDEX_ENABLED"`
	ReindexTime    string `yaml:"reindex_time" env:"SCHEDULER_REINDEX_TIME"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Format      string `yaml:"format" env:"LOG_FORMAT"`
	LogRequests bool   `yaml:"log_requests" env:"LOG_REQUESTS"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8084",
			GinMode:        "release",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "postgres",
			MySQL: MySQLConfig{
				Host:     "mysql",
				Port:     3306,
				User:     "atlas_user",
				Database: "atlas_db",
			},
			Postgres: PostgresConfig{
				Host:     "db",
				Port:     5432,
				User:     "atlas_user",
				Database: "atlas_db",
				SSLMode:  "disable",
			},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Index: "archive_entries",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1800,
			RequestsPerDay:    20000,
		},
		Cleanup: CleanupConfig{
			RetentionDays:    90,
			MaxDeletionCount: 10000,
			DryRun:           false,
		},
		Scheduler: SchedulerConfig{
			CleanupEnabled: true,
			CleanupTime:    "03:00",
			ReindexEnabled: false,
			ReindexTime:    "04:00",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, then applies
// environment variable overrides. A missing file yields the defaults.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := cleanenv.UpdateEnv(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q (want mysql or postgres)", c.Database.Type)
	}
	if c.Cleanup.RetentionDays < 0 {
		return fmt.Errorf("cleanup.retention_days must not be negative")
	}
	if c.Cleanup.MaxDeletionCount <= 0 {
		return fmt.Errorf("cleanup.max_deletion_count must be positive")
	}
	return nil
}

// SearchEnabled reports whether a Meilisearch host has been configured
func (c *SearchConfig) SearchEnabled() bool {
	return c.Meilisearch.Host != ""
}
