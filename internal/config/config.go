// Package config loads runtime configuration for the diagnostics
// server and CLI from a YAML file layered under environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Compute  ComputeConfig  `yaml:"compute"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// DatabaseConfig holds the result ledger connection. An empty URL
// disables archival.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// DataConfig holds dataset input settings.
type DataConfig struct {
	// ExcelFile is the default workbook to read datasets from.
	ExcelFile string `yaml:"excel_file"`
	// Sheet selects the worksheet; empty means the first sheet.
	Sheet string `yaml:"sheet"`
	// TargetColumn names the column holding targets, if any.
	TargetColumn string `yaml:"target_column"`
}

// ComputeConfig holds defaults for the diagnostic engines.
type ComputeConfig struct {
	Seed       int64   `yaml:"seed"`
	NJobs      float64 `yaml:"n_jobs"`
	NBootstrap int     `yaml:"n_bootstrap"`
	NBins      int     `yaml:"n_bins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: "8080", GinMode: "release"},
		Compute: ComputeConfig{Seed: 42, NJobs: 1, NBootstrap: 1},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration in three layers: built-in defaults, an
// optional YAML file, then environment variables (with .env support).
// Later layers override earlier ones.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit files are not.
	_ = godotenv.Load()

	cfg := defaults()
	if path == "" {
		path = os.Getenv("MINTPY_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overlayEnv(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overlayEnv(cfg *Config) {
	cfg.Server.Port = envOr("PORT", cfg.Server.Port)
	cfg.Server.GinMode = envOr("GIN_MODE", cfg.Server.GinMode)
	cfg.Database.URL = envOr("DATABASE_URL", cfg.Database.URL)
	cfg.Data.ExcelFile = envOr("EXCEL_FILE", cfg.Data.ExcelFile)
	cfg.Data.Sheet = envOr("EXCEL_SHEET", cfg.Data.Sheet)
	cfg.Data.TargetColumn = envOr("TARGET_COLUMN", cfg.Data.TargetColumn)
	cfg.Compute.Seed = envInt64Or("SEED", cfg.Compute.Seed)
	cfg.Compute.NJobs = envFloatOr("N_JOBS", cfg.Compute.NJobs)
	cfg.Compute.NBootstrap = envIntOr("N_BOOTSTRAP", cfg.Compute.NBootstrap)
	cfg.Compute.NBins = envIntOr("N_BINS", cfg.Compute.NBins)
	cfg.Logging.Level = envOr("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = envBoolOr("LOG_PRETTY", cfg.Logging.Pretty)
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Compute.NBootstrap < 1 {
		return fmt.Errorf("n_bootstrap must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
