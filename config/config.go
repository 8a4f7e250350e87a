/*
Package config loads server configuration from the environment.

PURPOSE:
  One place that knows every environment variable the server reads.
  A .env file in the working directory is loaded first when present;
  real environment variables win over it.

VARIABLES:
  APP_PORT           HTTP port (default 8080)
  DB_DRIVER          sqlite | postgres (default sqlite)
  DB_PATH            sqlite file (default payroll.db)
  DATABASE_URL       postgres DSN, required with DB_DRIVER=postgres
  LOG_LEVEL          zerolog level name (default info)
  LOG_FILE_PATH      optional file that receives a copy of the log
  CORS_ORIGINS       comma-separated allowed origins (default *)
  SCHEDULER_ENABLED  run the period-close job (default true)
  SCHEDULER_SPEC     cron spec for the job (default "@daily")

SEE ALSO:
  - cmd/server/main.go: Applies flag overrides on top of Load
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type LogConfig struct {
	Level    string
	FilePath string
}

// SchedulerConfig controls the period-close cron job.
type SchedulerConfig struct {
	Enabled bool
	Spec    string
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	enabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:        port,
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:   getEnv("DB_PATH", "payroll.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE_PATH", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled: enabled,
			Spec:    getEnv("SCHEDULER_SPEC", "@daily"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the driver, its connection settings and the port.
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.App.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return fmt.Errorf("SCHEDULER_SPEC is required when the scheduler is enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
