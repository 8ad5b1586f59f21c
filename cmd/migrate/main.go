package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/database"
	"github.com/pageza/fridge2fork/backend/internal/logging"
)

var errNoDatabase = errors.New("set DB_HOST or SQLITE_PATH to choose a database")

func main() {
	rollback := flag.Bool("rollback", false, "Drop the generation history tables")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log := logging.New(config.GetEnvironment(), "info")
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.New(cfg.Environment, cfg.LogLevel)

	if err := run(cfg, log, *rollback); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

// run applies or rolls back the schema and always closes the connection
func run(cfg *config.Config, log zerolog.Logger, rollback bool) error {
	if !cfg.DatabaseEnabled() {
		return errNoDatabase
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if rollback {
		if err := database.RollbackMigrations(db); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		log.Info().Msg("rolled back generation history schema")
		return nil
	}

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info().Msg("all migrations applied successfully")
	return nil
}
