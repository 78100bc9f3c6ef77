// Package database opens database connections from the configured DSN.
//
// The DSN shorthand is "prefix:value":
//
//	sqlite::memory:            in-memory SQLite database
//	sqlite:memory:             same
//	sqlite:/data/app.db        file resolved against the root path, created if missing
//	mysql:host=db;dbname=app   MySQL via github.com/go-sql-driver/mysql
//	pgsql:host=db;dbname=app   PostgreSQL via github.com/jackc/pgx/v5
//
// Every Connect call opens a new handle that is verified with a ping before
// it is returned. Driver failures are never swallowed: they surface wrapped
// in ErrConnectionFailed. There is no retry and no shared pool; the caller
// owns and closes the returned DB.
//
// Usage:
//
//	settings, err := database.FromConfig(cfg)
//	if errors.Is(err, database.ErrNotConfigured) {
//	    return nil
//	}
//	db, err := database.Connect(ctx, settings, resolver)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
