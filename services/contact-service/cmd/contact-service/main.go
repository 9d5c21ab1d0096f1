// Package main provides the CLI entry point for the contact-service.
// It serves the contact API, including the location query the report
// service aggregates over.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/migrate"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/shared"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/config"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/database"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/handlers"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/router"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/migrations"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	shared.SetupLogging(cfg.LogLevel)

	slog.Info("Starting contact service",
		"http_port", cfg.HTTPPort,
		"database_url", shared.MaskDSN(cfg.DatabaseURL),
		"migrate", cfg.Migrate,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Contact service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Contact service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if err := migrate.RunURL(ctx, "up", cfg.DatabaseURL, migrations.FS); err != nil {
			return err
		}
	}

	slog.Info("Connecting to PostgreSQL database")
	db, err := database.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Info("Tip: Start Postgres with 'docker compose up -d postgres' or ensure Postgres is running")
		return err
	}
	defer db.Close()
	slog.Info("Successfully connected to PostgreSQL database")

	h := handlers.NewHandlers(db)
	server := router.NewServer(cfg.HTTPPort, router.NewRouter(h, router.Config{
		CORSOrigins:  cfg.Origins(),
		RateLimitRPS: cfg.RateLimitRPS,
	}))

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")
		return nil
	case err := <-serverErrChan:
		return err
	}
}
