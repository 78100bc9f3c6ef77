package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Recognised configuration keys.
const (
	keyURLHost = "url-host"

	keyDatabase         = "db"
	keyDatabaseDSN      = "dsn"
	keyDatabaseUsername = "username"
	keyDatabasePassword = "password"
	keyDatabaseOptions  = "options"

	keyRuntime         = "php"
	keyRuntimeErrorLog = "error_log"
	keyRuntimeTimezone = "date_default_timezone_set"

	keyLogging       = "logging"
	keyLoggingLevel  = "level"
	keyLoggingFormat = "format"
	keyLoggingOutput = "output"
	keyLoggingFile   = "file"

	keyFileMaxSize    = "max_size"
	keyFileMaxBackups = "max_backups"
	keyFileMaxAge     = "max_age"
	keyFileCompress   = "compress"
)

// maskedSecret replaces the database password in diagnostic snapshots.
const maskedSecret = "********"

// supportedExtensions lists the file extensions Load accepts.
var supportedExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

// Config is the application configuration loaded once at startup.
//
// Known keys are exposed through typed accessors with explicit absence
// semantics; every other key is kept as a passthrough attribute and can be
// read with Attr. A Config is never modified after Load returns.
type Config struct {
	urlHost  *string
	database *databaseSection
	runtime  map[string]any
	logging  LoggingConfig
	raw      map[string]any
}

type databaseSection struct {
	dsn      string
	username *string
	password *string
	options  map[string]any
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `json:"level"`
	Format string            `json:"format"`
	Output string            `json:"output"`
	File   FileLoggingConfig `json:"file"`
}

// FileLoggingConfig contains rotation settings for the error log file.
// Zero values leave the rotation defaults in place.
type FileLoggingConfig struct {
	MaxSize    int  `json:"max_size"`
	MaxBackups int  `json:"max_backups"`
	MaxAge     int  `json:"max_age"`
	Compress   bool `json:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. YAML file values
//  2. Environment variables (override file values)
//
// Environment variables: APPENV_URL_HOST, APPENV_DB_DSN, APPENV_DB_USERNAME,
// APPENV_DB_PASSWORD.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration
//   - error: ErrFileNotFound, ErrUnsupportedFormat or ErrInvalidConfig
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: expected .yaml or .yml, got %q", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	raw = normalizeMap(raw)
	applyEnvOverrides(raw)

	return fromMap(raw), nil
}

// Empty returns a Config with no settings.
func Empty() *Config {
	return fromMap(map[string]any{})
}

// applyEnvOverrides applies environment variable overrides to the raw configuration.
// Environment variables follow the pattern: APPENV_SECTION_KEY
func applyEnvOverrides(raw map[string]any) {
	if v := os.Getenv("APPENV_URL_HOST"); v != "" {
		raw[keyURLHost] = v
	}

	overrides := map[string]string{
		keyDatabaseDSN:      os.Getenv("APPENV_DB_DSN"),
		keyDatabaseUsername: os.Getenv("APPENV_DB_USERNAME"),
		keyDatabasePassword: os.Getenv("APPENV_DB_PASSWORD"),
	}
	for key, v := range overrides {
		if v == "" {
			continue
		}
		db, ok := raw[keyDatabase].(map[string]any)
		if !ok {
			db = map[string]any{}
			raw[keyDatabase] = db
		}
		db[key] = v
	}
}

// fromMap builds the typed view over a normalised raw map.
func fromMap(raw map[string]any) *Config {
	if raw == nil {
		raw = map[string]any{}
	}
	cfg := &Config{raw: raw}

	if v, ok := stringAt(raw, keyURLHost); ok {
		cfg.urlHost = &v
	}

	if db, ok := raw[keyDatabase].(map[string]any); ok {
		if dsn, ok := stringAt(db, keyDatabaseDSN); ok {
			section := &databaseSection{dsn: dsn, options: map[string]any{}}
			if v, ok := scalarAt(db, keyDatabaseUsername); ok {
				section.username = &v
			}
			if v, ok := scalarAt(db, keyDatabasePassword); ok {
				section.password = &v
			}
			if opts, ok := db[keyDatabaseOptions].(map[string]any); ok {
				section.options = opts
			}
			cfg.database = section
		}
	}

	if rt, ok := raw[keyRuntime].(map[string]any); ok && len(rt) > 0 {
		cfg.runtime = rt
	}

	if lg, ok := raw[keyLogging].(map[string]any); ok {
		cfg.logging.Level, _ = stringAt(lg, keyLoggingLevel)
		cfg.logging.Format, _ = stringAt(lg, keyLoggingFormat)
		cfg.logging.Output, _ = stringAt(lg, keyLoggingOutput)
		if f, ok := lg[keyLoggingFile].(map[string]any); ok {
			cfg.logging.File.MaxSize, _ = f[keyFileMaxSize].(int)
			cfg.logging.File.MaxBackups, _ = f[keyFileMaxBackups].(int)
			cfg.logging.File.MaxAge, _ = f[keyFileMaxAge].(int)
			cfg.logging.File.Compress, _ = f[keyFileCompress].(bool)
		}
	}

	return cfg
}

// URLHost returns the configured base URL of the application.
func (c *Config) URLHost() (string, bool) {
	if c.urlHost == nil {
		return "", false
	}
	return *c.urlHost, true
}

// HasDatabase reports whether a db section with a DSN is configured.
func (c *Config) HasDatabase() bool {
	return c.database != nil
}

// DatabaseDSN returns the database DSN.
func (c *Config) DatabaseDSN() (string, bool) {
	if !c.HasDatabase() {
		return "", false
	}
	return c.database.dsn, true
}

// DatabaseUsername returns the database username.
func (c *Config) DatabaseUsername() (string, bool) {
	if !c.HasDatabase() || c.database.username == nil {
		return "", false
	}
	return *c.database.username, true
}

// DatabasePassword returns the database password.
func (c *Config) DatabasePassword() (string, bool) {
	if !c.HasDatabase() || c.database.password == nil {
		return "", false
	}
	return *c.database.password, true
}

// DatabaseOptions returns the driver options of the db section.
// The result is never nil; it is a copy and may be modified by the caller.
func (c *Config) DatabaseOptions() map[string]any {
	if !c.HasDatabase() {
		return map[string]any{}
	}
	return maps.Clone(c.database.options)
}

// HasRuntimeSettings reports whether the php section is a non-empty mapping.
func (c *Config) HasRuntimeSettings() bool {
	return len(c.runtime) > 0
}

// ErrorLogPath returns the configured error log path, relative to the root path.
func (c *Config) ErrorLogPath() (string, bool) {
	if !c.HasRuntimeSettings() {
		return "", false
	}
	return stringAt(c.runtime, keyRuntimeErrorLog)
}

// Timezone returns the configured IANA timezone name.
func (c *Config) Timezone() (string, bool) {
	if !c.HasRuntimeSettings() {
		return "", false
	}
	return stringAt(c.runtime, keyRuntimeTimezone)
}

// Logging returns the logging section. Missing fields are empty strings.
func (c *Config) Logging() LoggingConfig {
	return c.logging
}

// Attr returns the value stored under key exactly as decoded.
//
// A key that is not present at the top level and contains dots is looked up
// as a path through nested sections, so "db.dsn" returns the DSN.
func (c *Config) Attr(key string) (any, bool) {
	if v, ok := c.raw[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var current any = c.raw
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// MarshalJSON produces the diagnostic snapshot of the configuration.
// The database password is masked.
func (c *Config) MarshalJSON() ([]byte, error) {
	snapshot := maps.Clone(c.raw)
	if db, ok := snapshot[keyDatabase].(map[string]any); ok {
		if _, ok := db[keyDatabasePassword]; ok {
			db = maps.Clone(db)
			db[keyDatabasePassword] = maskedSecret
			snapshot[keyDatabase] = db
		}
	}
	return json.Marshal(struct {
		Class  string         `json:"class"`
		Config map[string]any `json:"config"`
	}{
		Class:  fmt.Sprintf("%T", *c),
		Config: snapshot,
	})
}

// String returns the snapshot as indented JSON.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

// stringAt returns m[key] if it is present and a string.
func stringAt(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// scalarAt returns m[key] as a string if it is a YAML scalar. Unquoted
// credentials such as "password: 123456" decode as numbers.
func scalarAt(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return v, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// normalizeMap converts nested map[any]any values produced by the YAML decoder
// for non-string keys into map[string]any.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return out
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}
