package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "LOG_LEVEL",
		"LOG_FILE_PATH", "CORS_ORIGINS", "SCHEDULER_ENABLED", "SCHEDULER_SPEC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "payroll.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "@daily", cfg.Scheduler.Spec)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://payroll@localhost/payroll")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://payroll.example.com")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"http://localhost:3000", "https://payroll.example.com"}, cfg.App.CORSOrigins)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "eighty")
	_, err := Load()
	assert.ErrorContains(t, err, "APP_PORT")

	clearEnv(t)
	t.Setenv("SCHEDULER_ENABLED", "sometimes")
	_, err = Load()
	assert.ErrorContains(t, err, "SCHEDULER_ENABLED")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Port: 8080},
			Database:  DatabaseConfig{Driver: DriverSQLite, Path: "payroll.db"},
			Scheduler: SchedulerConfig{Enabled: true, Spec: "@daily"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port zero", func(c *Config) { c.App.Port = 0 }, "APP_PORT"},
		{"port too large", func(c *Config) { c.App.Port = 70000 }, "APP_PORT"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, "DATABASE_URL"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "DB_PATH"},
		{"scheduler without spec", func(c *Config) { c.Scheduler.Spec = "" }, "SCHEDULER_SPEC"},
		{"disabled scheduler needs no spec", func(c *Config) {
			c.Scheduler = SchedulerConfig{}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
