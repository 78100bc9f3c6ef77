package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"

	"github.com/nerrad567/appenv/internal/infrastructure/paths"
)

// TestParseDSN verifies the prefix/value split.
func TestParseDSN(t *testing.T) {
	tests := []struct {
		input   string
		want    DSN
		wantErr bool
	}{
		{input: "sqlite::memory:", want: DSN{Prefix: "sqlite", Value: ":memory:"}},
		{input: "sqlite:memory:", want: DSN{Prefix: "sqlite", Value: "memory:"}},
		{input: "sqlite:/data/app.db", want: DSN{Prefix: "sqlite", Value: "/data/app.db"}},
		{input: "mysql:host=db;dbname=app", want: DSN{Prefix: "mysql", Value: "host=db;dbname=app"}},
		{input: "sqlite:", want: DSN{Prefix: "sqlite", Value: ""}},
		{input: "no-separator", wantErr: true},
		{input: ":memory:", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDSN(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDSN) {
					t.Errorf("ParseDSN(%q) error = %v, want ErrInvalidDSN", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDSN(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDSN(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

// TestConnect_SQLiteMemory verifies both in-memory spellings work without
// touching the filesystem.
func TestConnect_SQLiteMemory(t *testing.T) {
	for _, dsn := range []string{"sqlite::memory:", "sqlite:memory:"} {
		t.Run(dsn, func(t *testing.T) {
			root := t.TempDir()
			db := connectTestDB(t, Settings{DSN: dsn}, root)

			if db.Driver() != "sqlite3" {
				t.Errorf("Driver() = %q, want sqlite3", db.Driver())
			}
			if db.DSN() != dsn {
				t.Errorf("DSN() = %q, want %q", db.DSN(), dsn)
			}

			entries, err := os.ReadDir(root)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("root contains %d entries, want none", len(entries))
			}
		})
	}
}

// TestConnect_SQLiteFile verifies the file is resolved against the root and created.
func TestConnect_SQLiteFile(t *testing.T) {
	root := t.TempDir()
	db := connectTestDB(t, Settings{DSN: "sqlite:/app.db"}, root)

	if _, err := os.Stat(filepath.Join(root, "app.db")); err != nil {
		t.Errorf("database file was not created: %v", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("ExecContext() error = %v", err)
	}
}

// TestConnect_SQLiteFileSpecialCharacters verifies URI metacharacters in the
// file name do not redirect the database to another file.
func TestConnect_SQLiteFileSpecialCharacters(t *testing.T) {
	names := []string{"data#1.db", "what?.db", "100%.db", "with space.db"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			db := connectTestDB(t, Settings{DSN: "sqlite:/" + name}, root)

			if _, err := db.ExecContext(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
				t.Fatalf("ExecContext() error = %v", err)
			}

			entries, err := os.ReadDir(root)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 || entries[0].Name() != name {
				got := make([]string, 0, len(entries))
				for _, e := range entries {
					got = append(got, e.Name())
				}
				t.Fatalf("root contains %v, want only %q", got, name)
			}

			info, err := entries[0].Info()
			if err != nil {
				t.Fatal(err)
			}
			if info.Size() == 0 {
				t.Errorf("%s is empty, table was written elsewhere", name)
			}
		})
	}
}

// TestConnect_SQLiteOptions verifies options reach the driver.
func TestConnect_SQLiteOptions(t *testing.T) {
	db := connectTestDB(t, Settings{
		DSN:     "sqlite::memory:",
		Options: map[string]any{"_busy_timeout": 2500},
	}, t.TempDir())

	var timeout int
	if err := db.QueryRowContext(context.Background(), "PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout error = %v", err)
	}
	if timeout != 2500 {
		t.Errorf("busy_timeout = %d, want 2500", timeout)
	}
}

// TestConnect_CannotCreateFile verifies a file in a missing directory is reported.
func TestConnect_CannotCreateFile(t *testing.T) {
	root := t.TempDir()

	_, err := Connect(context.Background(), Settings{DSN: "sqlite:/missing-dir/app.db"}, paths.New(root, ""))
	if !errors.Is(err, paths.ErrCannotCreateFile) {
		t.Errorf("Connect() error = %v, want ErrCannotCreateFile", err)
	}
}

// TestConnect_DriverUnavailable verifies unknown prefixes and missing drivers.
func TestConnect_DriverUnavailable(t *testing.T) {
	resolver := paths.New(t.TempDir(), "")

	t.Run("unknown prefix", func(t *testing.T) {
		_, err := Connect(context.Background(), Settings{DSN: "oci:dbname=//localhost/XE"}, resolver)
		if !errors.Is(err, ErrDriverUnavailable) {
			t.Errorf("Connect() error = %v, want ErrDriverUnavailable", err)
		}
	})

	t.Run("driver not registered", func(t *testing.T) {
		original := driverAvailable
		driverAvailable = func(string) bool { return false }
		defer func() { driverAvailable = original }()

		_, err := Connect(context.Background(), Settings{DSN: "sqlite::memory:"}, resolver)
		if !errors.Is(err, ErrDriverUnavailable) {
			t.Errorf("Connect() error = %v, want ErrDriverUnavailable", err)
		}
	})
}

// TestConnect_InvalidDSN verifies a DSN without prefix is rejected.
func TestConnect_InvalidDSN(t *testing.T) {
	_, err := Connect(context.Background(), Settings{DSN: "app.db"}, paths.New(t.TempDir(), ""))
	if !errors.Is(err, ErrInvalidDSN) {
		t.Errorf("Connect() error = %v, want ErrInvalidDSN", err)
	}
}

// TestConnect_ConnectionFailed verifies driver errors are wrapped.
func TestConnect_ConnectionFailed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Connect(ctx, Settings{
		DSN:      "mysql:host=127.0.0.1;port=1;dbname=app",
		Username: "app",
	}, paths.New(t.TempDir(), ""))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// TestMySQLConnString verifies PDO-style keywords are translated.
func TestMySQLConnString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		options  map[string]any
		wantNet  string
		wantAddr string
		wantDB   string
		wantPar  map[string]string
	}{
		{
			name:     "host and port",
			value:    "host=db.internal;port=3307;dbname=app;charset=utf8mb4",
			wantNet:  "tcp",
			wantAddr: "db.internal:3307",
			wantDB:   "app",
			wantPar:  map[string]string{"charset": "utf8mb4"},
		},
		{
			name:     "defaults",
			value:    "dbname=app",
			wantNet:  "tcp",
			wantAddr: "127.0.0.1:3306",
			wantDB:   "app",
		},
		{
			name:     "unix socket",
			value:    "unix_socket=/run/mysqld/mysqld.sock;dbname=app",
			wantNet:  "unix",
			wantAddr: "/run/mysqld/mysqld.sock",
			wantDB:   "app",
		},
		{
			name:     "options",
			value:    "host=db;dbname=app",
			options:  map[string]any{"timeout": "5s"},
			wantNet:  "tcp",
			wantAddr: "db:3306",
			wantDB:   "app",
			wantPar:  map[string]string{"timeout": "5s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := mysqlConnString(DSN{Prefix: "mysql", Value: tt.value}, Settings{
				Username: "app",
				Password: "secret",
				Options:  tt.options,
			}, nil)
			if err != nil {
				t.Fatalf("mysqlConnString() error = %v", err)
			}

			cfg, err := mysql.ParseDSN(out)
			if err != nil {
				t.Fatalf("mysql.ParseDSN(%q) error = %v", out, err)
			}

			if cfg.User != "app" || cfg.Passwd != "secret" {
				t.Errorf("credentials = %q/%q, want app/secret", cfg.User, cfg.Passwd)
			}
			if cfg.Net != tt.wantNet || cfg.Addr != tt.wantAddr {
				t.Errorf("address = %s(%s), want %s(%s)", cfg.Net, cfg.Addr, tt.wantNet, tt.wantAddr)
			}
			if cfg.DBName != tt.wantDB {
				t.Errorf("DBName = %q, want %q", cfg.DBName, tt.wantDB)
			}
			for k, want := range tt.wantPar {
				if !strings.Contains(out, k+"="+want) {
					t.Errorf("DSN %q missing %s=%s", out, k, want)
				}
			}
		})
	}
}

// TestPgSQLConnString verifies PDO-style keywords are translated.
func TestPgSQLConnString(t *testing.T) {
	out, err := pgsqlConnString(DSN{Prefix: "pgsql", Value: "host=db.internal;port=5433;dbname=app"}, Settings{
		Username: "app",
		Password: "it's secret",
		Options:  map[string]any{"application_name": "appenv"},
	}, nil)
	if err != nil {
		t.Fatalf("pgsqlConnString() error = %v", err)
	}

	cfg, err := pgx.ParseConfig(out)
	if err != nil {
		t.Fatalf("pgx.ParseConfig(%q) error = %v", out, err)
	}

	if cfg.Host != "db.internal" || cfg.Port != 5433 {
		t.Errorf("address = %s:%d, want db.internal:5433", cfg.Host, cfg.Port)
	}
	if cfg.Database != "app" {
		t.Errorf("Database = %q, want app", cfg.Database)
	}
	if cfg.User != "app" || cfg.Password != "it's secret" {
		t.Errorf("credentials = %q/%q", cfg.User, cfg.Password)
	}
	if cfg.RuntimeParams["application_name"] != "appenv" {
		t.Errorf("application_name = %q, want appenv", cfg.RuntimeParams["application_name"])
	}
}

// TestPgSQLConnString_DSNCredentialsWin verifies credentials in the DSN are kept.
func TestPgSQLConnString_DSNCredentialsWin(t *testing.T) {
	out, err := pgsqlConnString(DSN{Prefix: "pgsql", Value: "host=db;user=owner;password=pw"}, Settings{
		Username: "app",
		Password: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("pgsqlConnString() error = %v", err)
	}

	cfg, err := pgx.ParseConfig(out)
	if err != nil {
		t.Fatalf("pgx.ParseConfig(%q) error = %v", out, err)
	}
	if cfg.User != "owner" || cfg.Password != "pw" {
		t.Errorf("credentials = %q/%q, want owner/pw", cfg.User, cfg.Password)
	}
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := connectTestDB(t, Settings{DSN: "sqlite::memory:"}, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db, err := Connect(context.Background(), Settings{DSN: "sqlite::memory:"}, paths.New(t.TempDir(), ""))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Second close should not error (nil check)
	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

// TestBeginTx verifies commit and rollback on the shared in-memory database.
func TestBeginTx(t *testing.T) {
	db := connectTestDB(t, Settings{DSN: "sqlite::memory:"}, t.TempDir())
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (id INTEGER PRIMARY KEY, value TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	for _, commit := range []bool{true, false} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() error = %v", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES (?)", commit); err != nil {
			t.Fatalf("INSERT error = %v", err)
		}
		if commit {
			err = tx.Commit()
		} else {
			err = tx.Rollback()
		}
		if err != nil {
			t.Fatalf("finishing transaction: %v", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 committed row, got %d", count)
	}
}

// connectTestDB connects and registers cleanup.
func connectTestDB(t *testing.T, s Settings, root string) *DB {
	t.Helper()

	db, err := Connect(context.Background(), s, paths.New(root, ""))
	if err != nil {
		t.Fatalf("Connect(%q) error = %v", s.DSN, err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return db
}
