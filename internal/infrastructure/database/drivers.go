package database

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/nerrad567/appenv/internal/infrastructure/paths"
)

// Driver defaults.
const (
	// sqliteMemory is the sqlite in-memory database marker.
	sqliteMemory = ":memory:"

	defaultMySQLHost = "127.0.0.1"
	defaultMySQLPort = "3306"
)

// adapter translates a DSN into a connection string for one Go driver.
type adapter struct {
	driverName string
	connString func(d DSN, s Settings, resolver *paths.Resolver) (string, error)
	configure  func(db *sql.DB)
}

// adapters maps DSN prefixes to drivers.
var adapters = map[string]adapter{
	"sqlite": {driverName: "sqlite3", connString: sqliteConnString, configure: configureSQLite},
	"mysql":  {driverName: "mysql", connString: mysqlConnString},
	"pgsql":  {driverName: "pgx", connString: pgsqlConnString},
}

// driverAvailable reports whether a Go SQL driver is registered under name.
var driverAvailable = func(name string) bool {
	return slices.Contains(sql.Drivers(), name)
}

// isSQLiteMemory reports whether a sqlite DSN value denotes an in-memory
// database. Both "sqlite:memory:" and "sqlite::memory:" are accepted.
func isSQLiteMemory(value string) bool {
	return strings.HasPrefix(strings.TrimPrefix(value, ":"), "memory:")
}

// sqliteConnString builds a go-sqlite3 URI. File databases are resolved
// against the root and created when missing; in-memory databases never touch
// the filesystem.
// See: https://github.com/mattn/go-sqlite3#connection-string
func sqliteConnString(d DSN, s Settings, resolver *paths.Resolver) (string, error) {
	target := sqliteMemory
	if !isSQLiteMemory(d.Value) {
		path, err := paths.EnsureFile(resolver.Path(d.Value))
		if err != nil {
			return "", err
		}
		// SQLite decodes the URI path, so '#', '?' and '%' must be escaped.
		target = (&url.URL{Path: path}).EscapedPath()
	}

	params := url.Values{}
	params.Set("_foreign_keys", "on")
	for k, v := range s.Options {
		params.Set(k, fmt.Sprint(v))
	}
	return "file:" + target + "?" + params.Encode(), nil
}

// configureSQLite limits the pool to one connection so that an in-memory
// database is shared by every query on the handle.
func configureSQLite(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
}

// mysqlConnString translates "host=..;port=..;dbname=..;unix_socket=..;charset=.."
// into a go-sql-driver DSN.
func mysqlConnString(d DSN, s Settings, _ *paths.Resolver) (string, error) {
	kv := parseKeywords(d.Value)

	cfg := mysql.NewConfig()
	cfg.User = s.Username
	cfg.Passwd = s.Password
	cfg.DBName = kv["dbname"]

	if sock := kv["unix_socket"]; sock != "" {
		cfg.Net = "unix"
		cfg.Addr = sock
	} else {
		host := kv["host"]
		if host == "" {
			host = defaultMySQLHost
		}
		port := kv["port"]
		if port == "" {
			port = defaultMySQLPort
		}
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, port)
	}

	params := map[string]string{}
	if charset := kv["charset"]; charset != "" {
		params["charset"] = charset
	}
	for k, v := range s.Options {
		params[k] = fmt.Sprint(v)
	}
	if len(params) > 0 {
		cfg.Params = params
	}

	return cfg.FormatDSN(), nil
}

// pgsqlConnString translates "host=..;port=..;dbname=.." into a libpq
// keyword/value connection string understood by pgx. Username and password
// from the settings fill in user/password when the DSN omits them; options
// are added as further keywords.
func pgsqlConnString(d DSN, s Settings, _ *paths.Resolver) (string, error) {
	kv := parseKeywords(d.Value)
	if _, ok := kv["user"]; !ok && s.Username != "" {
		kv["user"] = s.Username
	}
	if _, ok := kv["password"]; !ok && s.Password != "" {
		kv["password"] = s.Password
	}
	for k, v := range s.Options {
		kv[k] = fmt.Sprint(v)
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quotePgValue(kv[k]))
	}
	connStr := strings.Join(parts, " ")

	if _, err := pgx.ParseConfig(connStr); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	return connStr, nil
}

// quotePgValue quotes a keyword value, escaping backslashes and single quotes.
func quotePgValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
