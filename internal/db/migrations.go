package db

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations applies all pending migrations from migrationsDir.
// Goose drives a database/sql connection, so callers hand in a plain
// *sql.DB alongside the pgx pool the application itself uses.
func RunMigrations(sqlDB *sql.DB, migrationsDir string, logger *zap.SugaredLogger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	logger.Infow("checking for pending migrations", "dir", migrationsDir)

	if err := goose.Up(sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("migrations up to date")
	return nil
}

// MigrationStatus prints the goose status table for migrationsDir.
func MigrationStatus(sqlDB *sql.DB, migrationsDir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.Status(sqlDB, migrationsDir)
}
