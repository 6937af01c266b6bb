// Package cli implements the csvimp command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/config"
	"github.com/JonMunkholm/csvimp/internal/core"
	"github.com/JonMunkholm/csvimp/internal/logging"
)

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1 // the command or the import run failed
	exitRecordErrors = 2 // the import committed but some records failed
)

// exitError carries an exit code through cobra. A nil err means the command
// already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	envFile   string
	atlasPath string
	verbose   bool
	noColor   bool
}

// NewRootCmd builds the csvimp command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	var g globalOptions

	root := &cobra.Command{
		Use:           "csvimp",
		Short:         "Import CSV and Excel files into SQL tables using map definitions",
		Long:          color.CyanString("csvimp - map-driven CSV to SQL import"),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.noColor {
				color.NoColor = true
			}
			return loadEnv(g.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.envFile, "env-file", "", "load environment variables from this file (default: .env when present)")
	flags.StringVar(&g.atlasPath, "atlas", "", "atlas file with map definitions (default: $ATLAS_PATH or atlas.yaml)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newImportCmd(&g),
		newMapsCmd(&g),
		newValidateCmd(&g),
		newServeCmd(&g),
		newVersionCmd(build),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo) int {
	return run(ctx, NewRootCmd(build))
}

func run(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printError(root.ErrOrStderr(), ee.err)
		}
		return ee.code
	}
	printError(root.ErrOrStderr(), err)
	return exitFailure
}

// loadEnv applies an env file over the process environment. Without an
// explicit file a missing .env is fine.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}
	return nil
}

// setup loads the configuration and installs the logger. Commands that
// never touch the database pass needDB=false so DATABASE_URL may be unset.
func (g *globalOptions) setup(cmd *cobra.Command, needDB bool) (*config.Config, error) {
	load := config.LoadOffline
	if needDB {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if g.verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format))

	if g.atlasPath != "" {
		cfg.Atlas.Path = g.atlasPath
	}
	return cfg, nil
}

func loadAtlas(path string) (*atlas.Atlas, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("atlas file not found: %s", path)
	}
	return atlas.LoadFile(path)
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
	if core.IsUserFacing(err) {
		msg := core.MapError(err)
		fmt.Fprintf(w, "%s (%s)\n", msg.Action, msg.Code)
	}
}
