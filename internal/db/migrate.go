package db

import (
	"embed"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Migrate runs all pending goose migrations from the embedded migration files.
// It must be called before the HTTP server starts accepting requests.
func Migrate(db *sqlx.DB, driver string) error {
	gooseDriver, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	return up(db, gooseDriver)
}

// MigrateSQLite migrates an sqlite database; used by tests running in memory.
func MigrateSQLite(db *sqlx.DB) error {
	return up(db, DriverSQLite)
}

func up(db *sqlx.DB, dialect string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	sub, err := fs.Sub(Migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "sub migrations fs")
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	if err := goose.Up(db.DB, "."); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
		// goose dialect names match the configured driver names.
		return driver, nil
	default:
		return "", errors.WithHintf(ErrUnsupportedDriver, "no goose dialect for %q", driver)
	}
}
