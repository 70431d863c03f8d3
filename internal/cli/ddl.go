package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/objsql/internal/compile"
	"github.com/roach88/objsql/internal/config"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/schema"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// DDLOptions holds flags for the ddl command.
type DDLOptions struct {
	*RootOptions
	Output  string // output file path
	Metrics bool   // print compilation metrics to stderr
}

// Statement is one compiled DDL statement.
type Statement struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
}

// DDLResult is the compiled schema of one dialect.
type DDLResult struct {
	Dialect    string                  `json:"dialect"`
	Tables     []string                `json:"tables"`
	Cycles     []schema.ReferenceCycle `json:"cycles,omitempty"`
	Statements []Statement             `json:"statements"`
}

// Script joins the statements into one executable script.
func (r *DDLResult) Script() string {
	var b strings.Builder
	for i, s := range r.Statements {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.SQL)
		b.WriteString(";\n")
	}
	return b.String()
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DDLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ddl <schema-dir>",
		Short: "Compile a schema to CREATE TABLE and CREATE INDEX statements",
		Long: `Compile the entities of a CUE schema to DDL for the selected dialect.

Tables are emitted so that referenced tables precede the tables holding
foreign keys to them. Foreign key cycles are reported as warnings.

Examples:
  objsql ddl ./schema
  objsql ddl ./schema --dialect postgres -o schema.sql
  objsql ddl ./schema --dialect sqlserver --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print compilation metrics to stderr")

	return cmd
}

func runDDL(opts *DDLOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.settings()
	logger := opts.logger()

	d, err := cfg.TargetDialect()
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err.Error())
	}

	loaded, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, schemaDir)

	pipelineOpts := []compile.Option{compile.WithLogger(logger)}
	var registry *prometheus.Registry
	if opts.Metrics {
		registry = prometheus.NewRegistry()
		pipelineOpts = append(pipelineOpts, compile.WithMetrics(compile.NewMetrics(registry)))
	}

	result, err := buildDDL(cmd.Context(), logger, loaded.Registry, d, cfg, pipelineOpts...)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCompileFailed, err.Error())
	}
	warnCycles(logger, result.Cycles)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Script()), 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}
	if registry != nil {
		if err := writeMetrics(formatter.GetErrWriter(), registry); err != nil {
			return err
		}
	}

	return outputDDLSuccess(formatter, result, opts.Output)
}

// buildDDL derives the tables of reg and compiles their DDL for d.
func buildDDL(ctx context.Context, logger *slog.Logger, reg *model.Registry, d sqlfmt.Dialect, cfg *config.Config, opts ...compile.Option) (*DDLResult, error) {
	order, cycles := schema.CreationOrder(reg)
	ddl, err := schema.BuildDDL(reg, cfg.DDLOptions()...)
	if err != nil {
		return nil, fmt.Errorf("build ddl: %w", err)
	}

	opts = append([]compile.Option{compile.WithFormatOptions(cfg.FormatOptions())}, opts...)
	compiled, err := compile.New(d, opts...).CompileAll(ctx, ddl.Statements)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", d.Name(), err)
	}

	result := &DDLResult{
		Dialect:    d.Name(),
		Cycles:     cycles,
		Tables:     make([]string, len(order)),
		Statements: make([]Statement, len(compiled)),
	}
	for i, td := range order {
		result.Tables[i] = td.TableName
	}
	for i, c := range compiled {
		result.Statements[i] = Statement{SQL: c.SQL, Params: c.Params}
	}
	logger.Debug("ddl compiled", "dialect", d.Name(), "tables", len(result.Tables), "statements", len(result.Statements))
	return result, nil
}

func warnCycles(logger *slog.Logger, cycles []schema.ReferenceCycle) {
	for _, c := range cycles {
		logger.Warn("reference cycle", "cycle", c.String())
	}
}

// outputDDLSuccess prints the script, or a summary when it went to a file.
func outputDDLSuccess(formatter *OutputFormatter, result *DDLResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "-- warning: %s\n", c)
	}
	if outputFile == "" {
		fmt.Fprint(w, result.Script())
		return nil
	}
	fmt.Fprintf(w, "✓ Compiled %d table(s), %d statement(s) for %s\n", len(result.Tables), len(result.Statements), result.Dialect)
	fmt.Fprintf(w, "Wrote DDL to %s\n", outputFile)
	return nil
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputLoadError reports a LoadSchema failure with its source position.
func outputLoadError(formatter *OutputFormatter, err error) error {
	loadErr := convertLoadError(err)
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{"file": loadErr.File(), "line": loadErr.Line()}
		if !formatter.JSON() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.File(), loadErr.Line(), loadErr.Pos.Column())
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return WrapExitError(ExitCommandError, "load schema", loadErr)
}
