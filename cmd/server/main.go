package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"symptrack/internal/config"
	"symptrack/internal/core"
	"symptrack/internal/db"
	httpserver "symptrack/internal/http"
	"symptrack/internal/llm"
	"symptrack/internal/telemetry"

	_ "github.com/lib/pq"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "symptrack-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg := config.Load(env)

	logger, closer, err := telemetry.InitLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.TelemetryDir, version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTelemetry()

	// The key is read per request, so a missing key only warns here.
	if env.Get(config.APIKeyVar) == "" {
		logger.Warn("provider credential not set; analyses will fail until it is", "var", config.APIKeyVar)
	}
	go func() {
		if err := env.Watch(ctx, logger); err != nil {
			logger.Warn("env file watch disabled", "path", env.Path(), "error", err)
		}
	}()

	var (
		journal  httpserver.Journal
		notifier httpserver.Notifier
	)
	if cfg.DatabaseURL != "" {
		dbConn, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer dbConn.Close()
		journal = db.NewRepository(dbConn)
		notifier = db.NewNotifier(dbConn, cfg.DatabaseURL, cfg.NotifyChannel)
		logger.Info("analysis journal enabled", "channel", cfg.NotifyChannel)
	}

	providerOpts := llm.Options{BaseURL: cfg.ProviderBaseURL, Model: cfg.ProviderModel}
	factory := llm.NewFactory(providerOpts)
	analyzer := core.NewAnalyzer(func() string { return env.Get(config.APIKeyVar) }, factory, cfg.ProviderTimeout, logger)

	srv, err := httpserver.NewServer(analyzer, journal, notifier, logger)
	if err != nil {
		return fmt.Errorf("construct server: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(srv.CloseStreams)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr, "model", llm.NewOpenAIClient("", providerOpts).Model(), "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	srv.Wait()
	return nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	dbConn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(pingCtx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return dbConn, nil
}
