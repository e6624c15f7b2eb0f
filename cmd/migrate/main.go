package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/golang-migrate/migrate/v4/database/sqlite"

	"truckping/internal/util/logger/sl"
	"truckping/migrations"
	"truckping/pkg/migrator"
)

func main() {
	migrationDir := flag.String("path", "", "Path to a migrations directory (default: embedded journal schema)")
	dbPath := flag.String("db", "./storage/journal.sqlite", "Path to the SQLite journal file")
	direction := flag.String("direction", "up", "Migration direction: up, down, version, rollback or to")
	version := flag.Int("version", 0, "Target version for migration")
	steps := flag.Int("steps", 1, "Number of steps to roll back")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		logger.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}

	config := migrator.Config{MigrationsPath: *migrationDir}
	if *migrationDir == "" {
		config.Source = migrations.FS
	}

	m := migrator.NewMigrator(db, config, logger)

	switch *direction {
	case "up":
		err = m.MigrateUp()
	case "down":
		err = m.MigrateDown()
	case "version":
		v, dirty, verr := m.GetMigrationVersion()
		if verr == nil {
			fmt.Printf("Current migration version: %d (dirty: %v)\n", v, dirty)
		}
		err = verr
	case "rollback":
		err = m.MigrateDownN(*steps)
	case "to":
		if *version <= 0 {
			logger.Error("please specify a target version with -version")
			os.Exit(1)
		}
		err = m.MigrateTo(uint(*version))
	default:
		logger.Error("unknown migration direction", slog.String("direction", *direction))
		os.Exit(1)
	}

	if err != nil {
		logger.Error("migration failed", slog.String("direction", *direction), sl.Err(err))
		os.Exit(1)
	}
}
