package environment

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata" // Timezone database for hosts without zoneinfo

	"github.com/google/uuid"

	"github.com/nerrad567/appenv/internal/infrastructure/config"
	"github.com/nerrad567/appenv/internal/infrastructure/database"
	"github.com/nerrad567/appenv/internal/infrastructure/logging"
	"github.com/nerrad567/appenv/internal/infrastructure/paths"
)

// Environment is the application context produced by Init.
//
// It carries the loaded configuration, the root path and the logging
// destinations, and is passed explicitly to whatever needs them.
//
// Thread Safety:
//   - Init changes process-wide state (time.Local, TZ, the standard log
//     output and the default slog logger). Call it once from the entry point
//     before other goroutines start.
//   - An initialised Environment is read-only and safe for concurrent use.
type Environment struct {
	cfg      *config.Config
	resolver *paths.Resolver
	logger   *logging.Logger
	sink     *logging.Sink
	bootID   string

	prevLogOutput io.Writer
	prevLogFlags  int
	prevSlog      *slog.Logger

	prevLocal *time.Location
	prevTZ    string
	hadTZ     bool
}

// Options adjusts Init.
type Options struct {
	// Version is attached to every structured log entry.
	Version string
}

// Init builds the Environment for the application rooted at root.
//
// Steps, in order:
//  1. root is made absolute
//  2. if configPath is not empty it is loaded (relative paths are resolved
//     against root); otherwise the configuration is empty
//  3. a configured timezone becomes the process timezone
//  4. a configured error log is created if missing and receives the output
//     of the standard log package and the default slog logger
//
// Parameters:
//   - root: Application root directory, base for Path
//   - configPath: Config file to load, or "" for none
//
// Returns:
//   - *Environment: Initialised environment
//   - error: config.ErrFileNotFound, config.ErrUnsupportedFormat,
//     ErrInvalidTimezone or paths.ErrCannotCreateFile
func Init(root, configPath string, opts ...Options) (*Environment, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Version == "" {
		o.Version = "dev"
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	cfg := config.Empty()
	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(absRoot, configPath)
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	urlHost, _ := cfg.URLHost()
	env := &Environment{
		cfg:      cfg,
		resolver: paths.New(absRoot, urlHost),
		sink:     logging.NewSink(os.Stderr),
		bootID:   uuid.NewString(),
	}

	if err := env.applyTimezone(); err != nil {
		return nil, err
	}

	if err := env.applyErrorLog(); err != nil {
		env.restoreTimezone()
		return nil, err
	}

	if env.sink.Path() == "" {
		env.logger = logging.New(cfg.Logging(), o.Version).With("boot_id", env.bootID)
		return env, nil
	}

	env.logger = logging.NewWithWriter(env.sink, cfg.Logging(), o.Version).With("boot_id", env.bootID)
	env.redirectLogs()
	return env, nil
}

// applyTimezone sets the process timezone from the config.
// Without a configured timezone the process default is left untouched.
func (e *Environment) applyTimezone() error {
	name, ok := e.cfg.Timezone()
	if !ok {
		return nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidTimezone, name, err)
	}

	e.prevLocal = time.Local
	e.prevTZ, e.hadTZ = os.LookupEnv("TZ")
	time.Local = loc
	if err := os.Setenv("TZ", name); err != nil {
		e.restoreTimezone()
		return fmt.Errorf("setting TZ: %w", err)
	}
	return nil
}

// restoreTimezone undoes applyTimezone when a later Init step fails.
func (e *Environment) restoreTimezone() {
	if e.prevLocal == nil {
		return
	}
	time.Local = e.prevLocal
	if e.hadTZ {
		os.Setenv("TZ", e.prevTZ) //nolint:errcheck // Best effort on error path
	} else {
		os.Unsetenv("TZ") //nolint:errcheck // Best effort on error path
	}
	e.prevLocal = nil
}

// applyErrorLog opens the configured error log as the sink.
func (e *Environment) applyErrorLog() error {
	rel, ok := e.cfg.ErrorLogPath()
	if !ok {
		return nil
	}

	logPath, err := paths.EnsureFile(e.resolver.Path(rel))
	if err != nil {
		return fmt.Errorf("creating error log: %w", err)
	}

	e.sink = logging.OpenSink(logPath, e.cfg.Logging().File)
	return nil
}

// redirectLogs makes the sink the default slog destination and the output of
// the standard log package.
//
// slog.SetDefault routes the log package through the slog handler, which
// applies the configured level. The log package is pointed back at the sink
// afterwards so every log.Print line reaches the file unfiltered.
func (e *Environment) redirectLogs() {
	e.prevLogOutput = log.Writer()
	e.prevLogFlags = log.Flags()
	e.prevSlog = slog.Default()

	slog.SetDefault(e.logger.Logger)
	log.SetOutput(e.sink)
	log.SetFlags(e.prevLogFlags)
}

// Config returns the loaded configuration.
func (e *Environment) Config() *config.Config {
	return e.cfg
}

// Resolver returns the path and URL resolver.
func (e *Environment) Resolver() *paths.Resolver {
	return e.resolver
}

// Logger returns the structured logger.
func (e *Environment) Logger() *logging.Logger {
	return e.logger
}

// BootID returns the identifier generated for this Init call. It is attached
// to every structured log entry.
func (e *Environment) BootID() string {
	return e.bootID
}

// ErrorLogPath returns the absolute path of the error log, or "" when the
// error log goes to stderr.
func (e *Environment) ErrorLogPath() string {
	return e.sink.Path()
}

// Path returns the root path followed by suffix.
func (e *Environment) Path(suffix string) string {
	return e.resolver.Path(suffix)
}

// URL returns the base URL followed by suffix.
func (e *Environment) URL(suffix string) string {
	return e.resolver.URL(suffix)
}

// URLBase returns the configured host with a trailing slash.
func (e *Environment) URLBase() string {
	return e.resolver.URLBase()
}

// Attr returns a passthrough configuration attribute.
func (e *Environment) Attr(key string) (any, bool) {
	return e.cfg.Attr(key)
}

// Connect opens a new connection to the configured database.
//
// Returns:
//   - *database.DB: New connection, owned by the caller
//   - error: database.ErrNotConfigured when the config has no database,
//     otherwise any error from database.Connect
func (e *Environment) Connect(ctx context.Context) (*database.DB, error) {
	settings, err := database.FromConfig(e.cfg)
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, settings, e.resolver)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("database connected", "driver", db.Driver())
	return db, nil
}

// Log writes value to the error log, tagged with the file and line of the caller.
//
// The file is shown relative to the root path when it lies inside it.
func (e *Environment) Log(value any) {
	file, line := "unknown", 0
	if _, f, l, ok := runtime.Caller(1); ok {
		file, line = e.relative(f), l
	}
	if err := e.sink.Entry(file, line, value); err != nil {
		e.logger.Error("writing error log entry", "error", err)
	}
}

// relative trims the root prefix from a source file path.
func (e *Environment) relative(file string) string {
	root := e.resolver.Root() + string(filepath.Separator)
	if strings.HasPrefix(file, root) {
		return strings.TrimPrefix(file, root)
	}
	return file
}

// Close restores the standard log and slog outputs replaced by Init and
// closes the error log.
func (e *Environment) Close() error {
	if e.prevSlog != nil {
		slog.SetDefault(e.prevSlog)
		e.prevSlog = nil
	}
	if e.prevLogOutput != nil {
		log.SetOutput(e.prevLogOutput)
		log.SetFlags(e.prevLogFlags)
		e.prevLogOutput = nil
	}
	return e.sink.Close()
}
