package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/objsql/internal/compile"
	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/store"
)

// applyDialect is the only dialect apply can execute.
const applyDialect = "sqlite"

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string

	// IDs overrides the compilation ID source (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs compile.IDGenerator
}

// ApplyResult reports one apply run.
type ApplyResult struct {
	Database   string            `json:"database"`
	Applied    bool              `json:"applied"`
	Migration  string            `json:"migration"`
	Statements int               `json:"statements"`
	Migrations []store.Migration `json:"migrations"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return newApplyCommand(&ApplyOptions{RootOptions: rootOpts})
}

func newApplyCommand(opts *ApplyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <schema-dir>",
		Short: "Create a schema's tables in a SQLite database",
		Long: `Compile a schema's DDL for SQLite and execute it against a database,
creating the database if it does not exist.

The DDL text is recorded by content hash, so applying an unchanged schema
again is a no-op. The database path comes from --db or the config file.

Example:
  objsql apply --db ./objsql.db ./schema
  objsql apply --db /tmp/test.db ./schema --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runApply(opts *ApplyOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.settings()
	logger := opts.logger()
	ctx := cmd.Context()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath == "" {
		return outputCommandError(formatter, ErrCodeConfig, "database path required (--db or database in config)")
	}
	if cfg.Dialect != applyDialect {
		return outputCommandError(formatter, ErrCodeConfig, fmt.Sprintf("apply executes %s DDL, not %s", applyDialect, cfg.Dialect))
	}
	d, err := dialect.Lookup(applyDialect)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}

	logger.Info("loading schema", "dir", schemaDir)
	loaded, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = compile.UUIDv7Generator{}
	}
	result, err := buildDDL(ctx, logger, loaded.Registry, d, cfg, compile.WithLogger(logger), compile.WithIDGenerator(ids))
	if err != nil {
		return outputCommandError(formatter, ErrCodeCompileFailed, err.Error())
	}
	warnCycles(logger, result.Cycles)
	script := result.Script()

	logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	applied, err := st.ApplyDDL(ctx, ids.Generate(), applyDialect, script)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	migrations, err := st.Migrations(ctx)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	logger.Info("schema applied", "applied", applied, "migrations", len(migrations))

	return outputApplySuccess(formatter, ApplyResult{
		Database:   dbPath,
		Applied:    applied,
		Migration:  store.MigrationID(script),
		Statements: len(result.Statements),
		Migrations: migrations,
	})
}

func outputApplySuccess(formatter *OutputFormatter, result ApplyResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	short := result.Migration[:12]
	if result.Applied {
		fmt.Fprintf(w, "✓ Applied %d statement(s) to %s (migration %s)\n", result.Statements, result.Database, short)
	} else {
		fmt.Fprintf(w, "✓ Schema already applied to %s (migration %s)\n", result.Database, short)
	}
	for _, m := range result.Migrations {
		formatter.VerboseLog("  %d %s %s %s", m.Seq, m.ID[:12], m.Dialect, firstLine(m.SQL))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
