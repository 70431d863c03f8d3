package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/objsql/internal/config"
)

// RootOptions holds global flags for all commands.
//
// Flags override values from the --config file; flags left at their
// defaults leave the file's values in place.
type RootOptions struct {
	Verbose         bool
	Format          string // "json" | "text"
	ConfigPath      string
	Dialect         string
	InlineConstants bool

	// Config is resolved before any subcommand runs.
	Config *config.Config

	// Logger writes diagnostics to stderr.
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the objsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "objsql",
		Short: "objsql - object queries to SQL",
		Long: `Compile entity schemas and expression trees to dialect-specific SQL.

Schemas are CUE packages declaring entities, their properties, references
and indexes. objsql derives the tables, compiles the DDL for the selected
dialect, applies it to SQLite databases and runs conformance scenarios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&opts.Dialect, "dialect", "d", "sqlite", "target SQL dialect")
	flags.BoolVar(&opts.InlineConstants, "inline-constants", false, "render constants as literals instead of parameters")

	cmd.AddCommand(NewDDLCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the config file, applies explicitly set flags and installs
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("dialect") {
		cfg.Dialect = o.Dialect
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.Verbose
	}
	if flags.Changed("inline-constants") {
		cfg.InlineConstants = o.InlineConstants
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.Config = &cfg
	o.Format = cfg.Format
	o.Verbose = cfg.Verbose
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	return nil
}

// settings returns the resolved config. Commands built without a root
// command fall back to the flag fields over the defaults.
func (o *RootOptions) settings() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	cfg := config.Default()
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.Dialect != "" {
		cfg.Dialect = o.Dialect
	}
	cfg.Verbose = o.Verbose
	cfg.InlineConstants = o.InlineConstants
	return &cfg
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
