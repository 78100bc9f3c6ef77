package database

import "errors"

// Sentinel errors for database connections.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, database.ErrNotConfigured) {
//	    // Run without a database
//	}
var (
	// ErrNotConfigured indicates the config has no db section with a DSN.
	ErrNotConfigured = errors.New("database: not configured")

	// ErrInvalidDSN indicates the DSN has no driver prefix or cannot be translated.
	ErrInvalidDSN = errors.New("database: invalid DSN")

	// ErrDriverUnavailable indicates no Go driver is registered for the DSN prefix.
	ErrDriverUnavailable = errors.New("database: driver unavailable")

	// ErrConnectionFailed indicates the driver could not open or verify the connection.
	// The driver error is wrapped alongside it.
	ErrConnectionFailed = errors.New("database: connection failed")
)
