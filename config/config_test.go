package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: no overrides in the environment
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "DEPARTMENT",
		"DEPARTMENT_CONFIG", "YEAR", "OFFSET_MONTHS", "UNDO_DEPTH", "MIN_YEAR", "MAX_YEAR", "LOG_LEVEL", "AUTOSAVE_INTERVAL"} {
		t.Setenv(k, "")
	}

	// WHEN
	cfg, err := Load()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "demo", cfg.Grid.Department)
	assert.Equal(t, 3, cfg.Grid.OffsetMonths)
	assert.Equal(t, 50, cfg.Grid.UndoDepth)
	assert.Equal(t, time.Minute, cfg.Grid.AutosaveInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DEPARTMENT", "icu")
	t.Setenv("YEAR", "2025")
	t.Setenv("MIN_YEAR", "2020")
	t.Setenv("MAX_YEAR", "2030")
	t.Setenv("AUTOSAVE_INTERVAL", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "icu", cfg.Grid.Department)
	assert.Equal(t, 2025, cfg.Grid.Year)
	assert.Zero(t, cfg.Grid.AutosaveInterval)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("UNDO_DEPTH", "lots")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNDO_DEPTH")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:      AppConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "x.db"},
			Grid:     GridConfig{Department: "demo", Year: 2025, UndoDepth: 50},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.App.Port = 0 }, "APP_PORT"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, "DATABASE_URL"},
		{"negative autosave", func(c *Config) { c.Grid.AutosaveInterval = -time.Second }, "AUTOSAVE_INTERVAL"},
		{"no department", func(c *Config) { c.Grid.Department = "" }, "DEPARTMENT"},
		{"inverted bounds", func(c *Config) { c.Grid.MinYear, c.Grid.MaxYear = 2030, 2020 }, "MIN_YEAR"},
		{"year outside bounds", func(c *Config) { c.Grid.MinYear, c.Grid.MaxYear = 2026, 2030 }, "YEAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
