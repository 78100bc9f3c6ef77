// appenv - Application environment bootstrap
//
// This is the diagnostic command for the appenv bootstrap. It initialises an
// environment the same way an application would and reports what it sees:
//   - the loaded configuration (secrets masked)
//   - attributes, paths and URLs resolved against the root
//   - database connectivity
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nerrad567/appenv/internal/environment"
	"github.com/nerrad567/appenv/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Environment variables read by the CLI.
const (
	configEnvVar   = "APPENV_CONFIG"
	defaultEnvFile = ".env"
)

// errAttrNotFound is returned by the attr command for a missing key.
var errAttrNotFound = errors.New("attribute not found")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//   - stdout, stderr: Command output destinations
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	root    string
	config  string
	envFile string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "appenv",
		Short:         "Inspect an application environment",
		Long:          "appenv loads an application's config file, applies its timezone and error log settings, and reports the resulting environment.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.root, "root", "", "application root directory (default: working directory)")
	pf.StringVar(&flags.config, "config", "", "config file, relative to the root (default: $"+configEnvVar+")")
	pf.StringVar(&flags.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading APPENV_* variables")

	cmd.AddCommand(
		newConfigCommand(flags),
		newAttrCommand(flags),
		newPathCommand(flags),
		newURLCommand(flags),
		newDBCommand(flags),
	)
	return cmd
}

// initEnvironment loads the dotenv file and initialises the environment.
// A missing dotenv file is not an error.
func (f *globalFlags) initEnvironment() (*environment.Environment, error) {
	if f.envFile != "" {
		if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f.envFile, err)
		}
	}

	root := f.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		root = wd
	}

	configPath := f.config
	if configPath == "" {
		configPath = os.Getenv(configEnvVar)
	}

	return environment.Init(root, configPath, environment.Options{Version: version})
}

// withEnvironment wraps a command body with Init and Close.
func withEnvironment(flags *globalFlags, fn func(cmd *cobra.Command, env *environment.Environment, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := flags.initEnvironment()
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := env.Close(); closeErr != nil {
				env.Logger().Error("closing environment", "error", closeErr)
			}
		}()
		return fn(cmd, env, args)
	}
}

func newConfigCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the loaded configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: withEnvironment(flags, func(cmd *cobra.Command, env *environment.Environment, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), env.Config().String())
			return err
		}),
	}
}

func newAttrCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attr KEY",
		Short: "Print a configuration attribute (dotted keys reach nested values)",
		Args:  cobra.ExactArgs(1),
		RunE: withEnvironment(flags, func(cmd *cobra.Command, env *environment.Environment, args []string) error {
			value, ok := env.Attr(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", errAttrNotFound, args[0])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), logging.FormatValue(value))
			return err
		}),
	}
}

func newPathCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path [SUFFIX]",
		Short: "Print the root path followed by SUFFIX",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnvironment(flags, func(cmd *cobra.Command, env *environment.Environment, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), env.Path(optionalArg(args)))
			return err
		}),
	}
}

func newURLCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "url [SUFFIX]",
		Short: "Print the base URL followed by SUFFIX",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnvironment(flags, func(cmd *cobra.Command, env *environment.Environment, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), env.URL(optionalArg(args)))
			return err
		}),
	}
}

func newDBCommand(flags *globalFlags) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database commands",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Connect to the configured database and run a health check",
		Args:  cobra.NoArgs,
		RunE: withEnvironment(flags, func(cmd *cobra.Command, env *environment.Environment, _ []string) error {
			ctx := cmd.Context()

			db, err := env.Connect(ctx)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					env.Logger().Error("error closing database", "error", closeErr)
				}
			}()

			if err := db.HealthCheck(ctx); err != nil {
				return fmt.Errorf("database health check: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", db.Driver())
			return err
		}),
	})
	return dbCmd
}

// optionalArg returns the first argument or "".
func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
