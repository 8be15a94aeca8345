/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift grid server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Open the document store (memory, SQLite or PostgreSQL)
  3. Load the department (statuses, roster, norms) and seed the roster
  4. Open the editing session and the HTTP router
  5. Start autosave and the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -driver  memory | sqlite | postgres (overrides DB_DRIVER)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database
  -year    Session year (overrides YEAR)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop autosave, then save any pending draft once more
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/shifts.db"

  # Run without persistence
  ./server -driver=memory

  # Run against PostgreSQL
  DB_DRIVER=postgres DATABASE_URL=postgres://localhost/shifts ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go, store/postgres/postgres.go: Stores
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/shift-grid/api"
	"github.com/warp/shift-grid/config"
	"github.com/warp/shift-grid/factory"
	"github.com/warp/shift-grid/grid"
	gridstore "github.com/warp/shift-grid/grid/store"
	"github.com/warp/shift-grid/store/postgres"
	"github.com/warp/shift-grid/store/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conf, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Flags override the environment.
	port := flag.Int("port", conf.App.Port, "HTTP server port")
	driver := flag.String("driver", conf.Database.Driver, "Document store: memory, sqlite or postgres")
	dbPath := flag.String("db", conf.Database.Path, "SQLite database path")
	year := flag.Int("year", conf.Grid.Year, "Session year")
	flag.Parse()
	conf.App.Port = *port
	conf.Database.Driver = *driver
	conf.Database.Path = *dbPath
	conf.Grid.Year = *year
	if err := conf.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	if level, err := logrus.ParseLevel(conf.App.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", conf.App.LogLevel).Warn("Unknown log level, using info")
	}

	ctx := context.Background()

	// Initialize store
	store, closeStore, err := openStore(ctx, conf.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer closeStore()

	// Department
	dept, err := loadDepartment(conf.Grid.DepartmentConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed to load department")
	}
	if err := seedRoster(ctx, store, conf.Grid.Department, dept.Roster); err != nil {
		log.WithError(err).Fatal("Failed to seed roster")
	}

	// Initialize handler
	handler := api.NewHandler(store, dept, grid.Options{
		Department:   conf.Grid.Department,
		Year:         conf.Grid.Year,
		OffsetMonths: conf.Grid.OffsetMonths,
		UndoDepth:    conf.Grid.UndoDepth,
		MinYear:      conf.Grid.MinYear,
		MaxYear:      conf.Grid.MaxYear,
	}, log)
	if err := handler.Open(ctx); err != nil {
		log.WithError(err).Fatal("Failed to open schedule")
	}

	saver := api.NewAutosaver(handler, conf.Grid.AutosaveInterval, log)
	saver.Start()

	// Create router
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", conf.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":       conf.App.Port,
			"driver":     conf.Database.Driver,
			"department": conf.Grid.Department,
			"year":       conf.Grid.Year,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	saver.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if saver.SaveOnce(shutdownCtx) {
		log.Info("Pending draft saved")
	}

	log.Info("Server stopped")
}

// openStore builds the configured document store and its closer.
func openStore(ctx context.Context, db config.DatabaseConfig) (grid.Persistence, func(), error) {
	switch db.Driver {
	case config.DriverMemory:
		return gridstore.NewTxMemory(), func() {}, nil

	case config.DriverPostgres:
		s, err := postgres.New(ctx, db.URL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		if db.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(db.Path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		s, err := sqlite.New(db.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

// loadDepartment reads a department JSON file, or the demo preset when
// path is empty.
func loadDepartment(path string) (grid.Config, error) {
	if path == "" {
		return factory.ParseDepartment(factory.DemoDepartmentJSON)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return grid.Config{}, fmt.Errorf("read department config: %w", err)
	}
	return factory.ParseDepartment(string(raw))
}

// seedRoster stores the configured roster on first start. An existing
// roster document wins over the file.
func seedRoster(ctx context.Context, store grid.Persistence, dept string, roster grid.Roster) error {
	existing, err := grid.LoadRoster(ctx, store, dept)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return grid.SaveRoster(ctx, store, dept, roster)
}
