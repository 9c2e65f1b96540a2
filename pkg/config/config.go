// Package config loads runtime settings from the environment, reading a .env file first
// when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Import        ImportConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
}

type ImportConfig struct {
	DefaultCategoryID int64
	Currency          string // stored with inserted rows when the statement names none
	SampleRows        int    // rows echoed back when a mapping is needed
	MaxFileBytes      int64
	RulesFile         string // optional CSV seed for merchant rules
	ArchiveDir        string // committed statements are copied here when set
}

type ObservabilityConfig struct {
	MetricsEnabled  bool
	MetricsTextfile string // written after each run, for a node_exporter textfile collector
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load reads configuration from environment variables. Files are .env files to read
// first; a missing file is not an error. With no files, ".env" is tried.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnvAsInt("POSTGRES_PORT", 5432),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			Database:        getEnv("POSTGRES_DB", "statements"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns:        getEnvAsInt("POSTGRES_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("POSTGRES_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("POSTGRES_MAX_CONN_LIFETIME", time.Hour),
		},
		Import: ImportConfig{
			DefaultCategoryID: int64(getEnvAsInt("IMPORT_DEFAULT_CATEGORY_ID", 1)),
			Currency:          strings.ToUpper(getEnv("IMPORT_CURRENCY", "EUR")),
			SampleRows:        getEnvAsInt("IMPORT_SAMPLE_ROWS", 5),
			MaxFileBytes:      int64(getEnvAsInt("IMPORT_MAX_FILE_BYTES", 20<<20)),
			RulesFile:         getEnv("IMPORT_RULES_FILE", ""),
			ArchiveDir:        getEnv("IMPORT_ARCHIVE_DIR", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:  getEnvAsBool("METRICS_ENABLED", true),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.Import.SampleRows < 0 {
		return nil, errors.New("IMPORT_SAMPLE_ROWS must not be negative")
	}
	if cfg.Import.MaxFileBytes <= 0 {
		return nil, errors.New("IMPORT_MAX_FILE_BYTES must be positive")
	}
	if len(cfg.Import.Currency) != 3 {
		return nil, fmt.Errorf("IMPORT_CURRENCY must be an ISO 4217 code, got %q", cfg.Import.Currency)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// NewLogger builds the process logger.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
