package store

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Store persists users, access tokens, and posts. It speaks SQLite for
// single-binary deployments and tests, MySQL or Postgres for shared ones.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database for the given driver and DSN and runs the
// schema migrations. For the sqlite driver an empty DSN selects an
// in-memory database; a plain directory path is treated as a data dir
// holding hearth.db.
func Open(driver, dsn string) (*Store, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite, "":
		sqlDriver = "sqlite"
		driver = DriverSQLite
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	case DriverMySQL:
		sqlDriver = "mysql"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return ":memory:?_journal_mode=WAL", nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(path, "hearth.db") + "?_journal_mode=WAL&_busy_timeout=5000", nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// rebind translates ?-style placeholders to the dialect's bindvars.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
