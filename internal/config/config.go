package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"perfpulse/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel string
	Analysis AnalysisConfig
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
}

// AnalysisConfig holds the normalization constants and catalog location
type AnalysisConfig struct {
	WindowDays      int
	FocusInactivity time.Duration
	ActivePerAction time.Duration
	EnergyBaseline  float64
	Location        *time.Location
	PatternCatalog  string
}

// DatabaseConfig holds database connection settings. An empty URL means no
// relational source is configured.
type DatabaseConfig struct {
	URL    string
	Driver string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port                  string
	UIPort                string
	GinMode               string
	MaxConcurrentAnalyses int64
}

// DataConfig points at a file source (JSON feed, xlsx or csv) or an HTTP
// activity feed
type DataConfig struct {
	File          string
	FeedURL       string
	FeedAuth      string
	FeedToken     string
	FeedDataPath  string
	FeedRateLimit int
}

// Enabled reports whether a relational source is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	config.Analysis = *analysis

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *database

	server, err := loadServerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load server configuration")
	}
	config.Server = *server

	data, err := loadDataConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data source configuration")
	}
	config.Data = *data

	return config, nil
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	window, err := getEnvInt("ANALYSIS_WINDOW_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if window < 3 || window > 366 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("ANALYSIS_WINDOW_DAYS must be between 3 and 366, got %d", window))
	}

	inactivity, err := getEnvInt("FOCUS_INACTIVITY_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	active, err := getEnvInt("ACTIVE_MINUTES_PER_ACTION", 2)
	if err != nil {
		return nil, err
	}
	if inactivity <= 0 || active <= 0 {
		return nil, errors.ConfigInvalid("FOCUS_INACTIVITY_MINUTES and ACTIVE_MINUTES_PER_ACTION must be positive")
	}

	baseline, err := getEnvFloat("ENERGY_BASELINE", 50)
	if err != nil {
		return nil, err
	}
	if baseline < 0 || baseline > 100 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("ENERGY_BASELINE must be within 0-100, got %g", baseline))
	}

	tz := getEnvOrDefault("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "unknown TIMEZONE %q", tz))
	}

	return &AnalysisConfig{
		WindowDays:      window,
		FocusInactivity: time.Duration(inactivity) * time.Minute,
		ActivePerAction: time.Duration(active) * time.Minute,
		EnergyBaseline:  baseline,
		Location:        loc,
		PatternCatalog:  getEnvOrDefault("PATTERN_CATALOG", ""),
	}, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		URL:    getEnvOrDefault("DATABASE_URL", ""),
		Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "postgres")),
	}
	switch cfg.Driver {
	case "postgres", "sqlite3":
		return cfg, nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("DATABASE_DRIVER must be postgres or sqlite3, got %q", cfg.Driver))
}

func loadServerConfig() (*ServerConfig, error) {
	limit, err := getEnvInt("MAX_CONCURRENT_ANALYSES", 4)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be positive")
	}
	return &ServerConfig{
		Port:                  getEnvOrDefault("PORT", "8080"),
		UIPort:                getEnvOrDefault("UI_PORT", "8081"),
		GinMode:               getEnvOrDefault("GIN_MODE", "release"),
		MaxConcurrentAnalyses: int64(limit),
	}, nil
}

func loadDataConfig() (*DataConfig, error) {
	rate, err := getEnvInt("FEED_RATE_LIMIT", 60)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, errors.ConfigInvalid("FEED_RATE_LIMIT must be positive")
	}
	auth := strings.ToLower(getEnvOrDefault("FEED_AUTH", "none"))
	switch auth {
	case "none", "bearer", "api_key", "basic":
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("FEED_AUTH must be none, bearer, api_key or basic, got %q", auth))
	}
	return &DataConfig{
		File:          getEnvOrDefault("DATA_FILE", ""),
		FeedURL:       getEnvOrDefault("FEED_URL", ""),
		FeedAuth:      auth,
		FeedToken:     getEnvOrDefault("FEED_TOKEN", ""),
		FeedDataPath:  getEnvOrDefault("FEED_DATA_PATH", ""),
		FeedRateLimit: rate,
	}, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}
