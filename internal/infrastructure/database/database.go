package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/appenv/internal/infrastructure/config"
	"github.com/nerrad567/appenv/internal/infrastructure/paths"
)

// connectionTimeout is the timeout for verifying database connectivity.
const connectionTimeout = 5 * time.Second

// DB wraps a sql.DB connection opened from the configured DSN.
// Each Connect call returns a new DB owned by the caller, who must Close it.
type DB struct {
	*sql.DB
	driver string
	dsn    string
}

// Settings contains the database settings of the db config section.
type Settings struct {
	// DSN is the driver-prefixed connection string ("sqlite:data/app.db").
	DSN string

	// Username and Password are passed to drivers that authenticate.
	Username string
	Password string

	// Options become driver connection parameters.
	Options map[string]any
}

// FromConfig extracts the database settings from cfg.
//
// Returns:
//   - Settings: Settings ready for Connect
//   - error: ErrNotConfigured if cfg has no db section with a DSN
func FromConfig(cfg *config.Config) (Settings, error) {
	dsn, ok := cfg.DatabaseDSN()
	if !ok {
		return Settings{}, ErrNotConfigured
	}
	username, _ := cfg.DatabaseUsername()
	password, _ := cfg.DatabasePassword()
	return Settings{
		DSN:      dsn,
		Username: username,
		Password: password,
		Options:  cfg.DatabaseOptions(),
	}, nil
}

// Connect opens a new database connection from s.
//
// It performs the following steps:
//  1. Splits the DSN into driver prefix and value
//  2. Checks the Go driver for the prefix is registered
//  3. Translates the value into the driver's connection string; for sqlite
//     the database file is resolved against the root and created if missing
//  4. Opens the connection and verifies it with a ping
//
// There is no retry: one call is one connection attempt.
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - s: Database settings
//   - resolver: Resolves relative sqlite paths against the root
//
// Returns:
//   - *DB: Connected database
//   - error: ErrInvalidDSN, ErrDriverUnavailable, paths.ErrCannotCreateFile
//     or ErrConnectionFailed
func Connect(ctx context.Context, s Settings, resolver *paths.Resolver) (*DB, error) {
	dsn, err := ParseDSN(s.DSN)
	if err != nil {
		return nil, err
	}

	a, ok := adapters[dsn.Prefix]
	if !ok {
		return nil, fmt.Errorf("%w: no driver for prefix %q", ErrDriverUnavailable, dsn.Prefix)
	}
	if !driverAvailable(a.driverName) {
		return nil, fmt.Errorf("%w: %s driver is not registered", ErrDriverUnavailable, a.driverName)
	}

	connStr, err := a.connString(dsn, s, resolver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(a.driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if a.configure != nil {
		a.configure(sqlDB)
	}

	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &DB{
		DB:     sqlDB,
		driver: a.driverName,
		dsn:    s.DSN,
	}, nil
}

// Close closes the database connection.
//
// Returns:
//   - error: If closing fails
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Driver returns the name of the Go SQL driver in use.
func (db *DB) Driver() string {
	return db.driver
}

// DSN returns the DSN the connection was opened from, as configured.
func (db *DB) DSN() string {
	return db.dsn
}

// HealthCheck runs "SELECT 1" on the handle.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// ExecContext is sql.DB.ExecContext with the error wrapped.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// BeginTx is sql.DB.BeginTx with the error wrapped. The caller commits or
// rolls back.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
