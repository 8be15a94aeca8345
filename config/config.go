// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Grid     GridConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	LogLevel string
}

type DatabaseConfig struct {
	Driver string // memory, sqlite or postgres
	Path   string // sqlite file
	URL    string // postgres dsn
}

// GridConfig holds the editing session defaults.
type GridConfig struct {
	Department       string
	DepartmentConfig string // path to a department JSON file; empty loads the demo preset
	Year             int
	OffsetMonths     int
	UndoDepth        int
	MinYear          int
	MaxYear          int
	AutosaveInterval time.Duration // 0 disables autosave
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}

	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	config.App = AppConfig{
		Port:     appPort,
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Database = DatabaseConfig{
		Driver: getEnv("DB_DRIVER", DriverSQLite),
		Path:   getEnv("DB_PATH", "./data/shifts.db"),
		URL:    getEnv("DATABASE_URL", ""),
	}

	g := GridConfig{
		Department:       getEnv("DEPARTMENT", "demo"),
		DepartmentConfig: getEnv("DEPARTMENT_CONFIG", ""),
	}
	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"YEAR", time.Now().Year(), &g.Year},
		{"OFFSET_MONTHS", 3, &g.OffsetMonths},
		{"UNDO_DEPTH", 50, &g.UndoDepth},
		{"MIN_YEAR", 0, &g.MinYear},
		{"MAX_YEAR", 0, &g.MaxYear},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, v.fallback); err != nil {
			return nil, err
		}
	}
	if g.AutosaveInterval, err = getEnvDuration("AUTOSAVE_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	config.Grid = g

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT %d out of range", c.App.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.Grid.Department == "" {
		return fmt.Errorf("DEPARTMENT is required")
	}
	if c.Grid.UndoDepth < 0 {
		return fmt.Errorf("UNDO_DEPTH must not be negative")
	}
	if c.Grid.AutosaveInterval < 0 {
		return fmt.Errorf("AUTOSAVE_INTERVAL must not be negative")
	}
	if c.Grid.MinYear != 0 && c.Grid.MaxYear != 0 && c.Grid.MinYear > c.Grid.MaxYear {
		return fmt.Errorf("MIN_YEAR %d is after MAX_YEAR %d", c.Grid.MinYear, c.Grid.MaxYear)
	}
	if (c.Grid.MinYear != 0 && c.Grid.Year < c.Grid.MinYear) || (c.Grid.MaxYear != 0 && c.Grid.Year > c.Grid.MaxYear) {
		return fmt.Errorf("YEAR %d outside [MIN_YEAR, MAX_YEAR]", c.Grid.Year)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
