package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"

	_ "github.com/AkatukiSora/pokertracker/internal/persistence/migrations"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

var (
	gooseSetupOnce sync.Once
	gooseSetupErr  error
)

// setupGoose points goose at the embedded SQL files. Go migrations register
// themselves from the migrations package init.
func setupGoose() error {
	gooseSetupOnce.Do(func() {
		goose.SetBaseFS(migrationFS)
		goose.SetLogger(goose.NopLogger())
		gooseSetupErr = goose.SetDialect("sqlite3")
	})
	if gooseSetupErr != nil {
		return fmt.Errorf("setup goose: %w", gooseSetupErr)
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	after, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if after != before {
		slog.Info("database schema migrated", "from", before, "to", after)
	}
	return nil
}

// SchemaVersion reports the latest applied migration of a SQLite database.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
