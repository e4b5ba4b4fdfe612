package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Configured driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// BusyTimeout is how long a SQLite connection waits for a lock before failing.
const BusyTimeout = 5 * time.Second

// ErrUnsupportedDriver is returned for a driver other than sqlite3, mysql or postgres.
var ErrUnsupportedDriver = errors.New("unsupported DB driver")

// New opens a database connection for the given driver and DSN.
// SQLite databases run in WAL mode with a busy timeout on every pooled
// connection.
func New(driver, dsn string) (*sqlx.DB, error) {
	name, dsn, err := driverDSN(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enable WAL")
		}
	}
	return db, nil
}

// driverDSN maps a configured driver to its database/sql name and completes
// the DSN. modernc/sqlite registers itself as "sqlite" (CGO-free).
func driverDSN(driver, dsn string) (string, string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite", withBusyTimeout(dsn), nil
	case DriverMySQL:
		return "mysql", dsn, nil
	case DriverPostgres:
		return "postgres", dsn, nil
	default:
		return "", "", errors.WithHintf(ErrUnsupportedDriver, "%q: must be sqlite3, mysql, or postgres", driver)
	}
}

// withBusyTimeout adds a busy_timeout pragma to a SQLite DSN that has none.
// A pragma in the DSN is applied to each new connection, unlike a one-off
// PRAGMA statement.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(" + strconv.FormatInt(BusyTimeout.Milliseconds(), 10) + ")"
}
