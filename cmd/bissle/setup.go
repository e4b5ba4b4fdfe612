package main

import (
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/felixheck/bissle/internal/config"
	"github.com/felixheck/bissle/internal/db"
	"github.com/felixheck/bissle/internal/logging"
)

// setup loads the configuration, builds the logger and opens a migrated
// database. The caller closes the database.
func setup() (*config.Config, zerolog.Logger, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, logger, nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, logger, nil, err
	}
	return cfg, logger, database, nil
}
