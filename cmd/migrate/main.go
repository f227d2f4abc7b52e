package main

import (
	"database/sql"
	"fmt"
	"os"

	"vitrina/internal/config"
	"vitrina/internal/db"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

const usage = `usage: migrate <command>

commands:
  up        apply all pending migrations
  down      roll back the most recent migration
  status    print migration status
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	logger := zapLogger.Sugar()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warnw("no .env file loaded", "error", err)
	}

	cfg := config.Load()

	sqlDB, err := sql.Open("postgres", cfg.Database.Addr)
	if err != nil {
		logger.Fatalw("failed to open database", "error", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Fatalw("failed to reach database", "error", err)
	}

	dir := cfg.Database.MigrationsDir

	switch os.Args[1] {
	case "up":
		err = db.RunMigrations(sqlDB, dir, logger)
	case "down":
		if err = goose.SetDialect("postgres"); err == nil {
			err = goose.Down(sqlDB, dir)
		}
	case "status":
		err = db.MigrationStatus(sqlDB, dir)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalw("migration command failed", "command", os.Args[1], "error", err)
	}
}
