package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/cratedig/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var db *sql.DB
	if opened, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(opened, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(opened); err != nil {
			logger.Warn("failed to run migrations", "error", err)
		}
		db = opened
		defer db.Close()
	} else {
		logger.Warn("database unavailable", "error", err)
	}

	runner, err := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
		DB:     db,
	})
	if err != nil {
		logger.Fatalf("failed to initialize: %v", err)
	}

	app := &cli.Command{
		Name:     "cratedig",
		Usage:    "Search a music catalog & download tagged preview clips",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
