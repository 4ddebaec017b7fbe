// internal/cli/root.go

// Package cli holds the packexport cobra commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gagin/packexport/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "0.3.0"

// ErrReported marks a failure whose message was already shown to the user.
var ErrReported = errors.New("error already reported")

// app carries state shared by every subcommand.
type app struct {
	logLevel   string
	configPath string
	directory  string
	gitignore  bool

	cfg    config.Config
	level  slog.Level
	logger *slog.Logger
}

// NewRootCommand creates and returns the root cobra command for packexport
func NewRootCommand() *cobra.Command {
	a := &app{cfg: config.Default, logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "packexport",
		Short: "Export an instance folder as a zip, minus what you chose to leave out",
		Long: `packexport archives an instance directory into a single zip file.

Folders and files can be left out of the export. The choice is stored as a
list of path prefixes in the instance's .packignore file and shown as a
checked, unchecked or partially checked tree.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "loglevel", "info", "Set logging verbosity (debug, info, warn, error).")
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a custom configuration file.")
	flags.StringVarP(&a.directory, "directory", "d", ".", "Instance directory.")
	flags.BoolVar(&a.gitignore, "gitignore", false, "Skip files matched by .gitignore and .ignore files.")

	cmd.AddCommand(newExportCommand(a))
	cmd.AddCommand(newTreeCommand(a))
	cmd.AddCommand(newIgnoreCommand(a))
	cmd.AddCommand(newBrowseCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// setup configures logging and loads the configuration.
func (a *app) setup(stderr io.Writer) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
		fmt.Fprintf(stderr, "Invalid log level %q, defaulting to 'info'.\n", a.logLevel)
		logLevel = slog.LevelInfo
	}
	a.level = logLevel
	a.logger = a.newLogger(stderr)
	slog.SetDefault(a.logger)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		if a.configPath != "" {
			return fmt.Errorf("cannot load configuration: %w", err)
		}
		slog.Error("Failed to load configuration, using defaults.", "error", err)
		cfg = config.Default
	}
	a.cfg = cfg
	return nil
}

func (a *app) newLogger(w io.Writer) *slog.Logger {
	logOpts := &slog.HandlerOptions{Level: a.level, AddSource: a.level <= slog.LevelDebug}
	return slog.New(slog.NewTextHandler(w, logOpts))
}

// redirectLogs sends log output to w until restore is called.
func (a *app) redirectLogs(w io.Writer) (restore func()) {
	prev := a.logger
	a.logger = a.newLogger(w)
	slog.SetDefault(a.logger)
	return func() {
		a.logger = prev
		slog.SetDefault(prev)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "packexport version %s\n", Version)
		},
	}
}
