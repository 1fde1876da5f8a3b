/*
main.go - HTTP server entry point

PURPOSE:
  Starts the work-time calculation API. Loads configuration, opens the
  SQLite store, resolves the base settings tree and serves the router
  with graceful shutdown.

STARTUP SEQUENCE:
  1. Load config (flag -config, WORKTIME_* env, defaults)
  2. Build the logger
  3. Initialize SQLite store
  4. Resolve base settings (policy.settings_path or policy.preset)
  5. Start the retention scheduler
  6. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout)
  3. Stop the scheduler and close the database

EXAMPLES:
  ./server -config=./config/worktime.yaml
  WORKTIME_DB_PATH=":memory:" WORKTIME_POLICY_PRESET=korean-standard ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seojaehong/hr-mvp-app/api"
	"github.com/seojaehong/hr-mvp-app/config"
	"github.com/seojaehong/hr-mvp-app/factory"
	"github.com/seojaehong/hr-mvp-app/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	settingsFactory := factory.NewSettingsFactory()
	base, err := settingsFactory.LoadBase(cfg.Policy.SettingsPath, cfg.Policy.Preset)
	if err != nil {
		return fmt.Errorf("failed to load base settings: %w", err)
	}
	// Fail at startup rather than on the first request.
	if _, err := settingsFactory.Policy(base); err != nil {
		return err
	}

	handler := api.NewHandler(store,
		api.WithDefaults(base),
		api.WithWorkers(cfg.Simulation.Workers),
		api.WithLogger(logger))

	level, _ := cfg.Log.SlogLevel()
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.CORS.AllowOrigins,
		LogLevel:       level,
	})

	scheduler := api.NewRetentionScheduler(store, logger)
	scheduler.Enabled = cfg.Retention.Enabled
	scheduler.Retention = cfg.Retention.Window
	scheduler.CheckInterval = cfg.Retention.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", server.Addr,
			"db", cfg.Database.Path,
			"settings_path", cfg.Policy.SettingsPath,
			"preset", cfg.Policy.Preset)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
