// Package migrate applies embedded SQL migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// Up applies every pending migration found at the root of migrations.
func Up(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	return Run(ctx, "up", db, migrations)
}

// Run executes a goose command ("up", "down", "status", ...) against db.
func Run(ctx context.Context, command string, db *sql.DB, migrations fs.FS) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}
	if migrations == nil {
		return fmt.Errorf("migrations filesystem is nil")
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	slog.Info("Migrations applied", "command", command)
	return nil
}

// RunURL opens dbURL with the pgx driver and runs command.
func RunURL(ctx context.Context, command, dbURL string, migrations fs.FS) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return Run(ctx, command, db, migrations)
}
