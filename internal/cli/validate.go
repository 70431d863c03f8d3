package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/schema"
)

// ValidationError is one problem found in a schema.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Dialect string `json:"dialect,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                    `json:"valid"`
	Entities int                     `json:"entities"`
	Tables   []string                `json:"tables,omitempty"`
	Cycles   []schema.ReferenceCycle `json:"cycles,omitempty"`
	Errors   []ValidationError       `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Check that a schema compiles for every dialect",
		Long: `Validate a CUE schema without writing any output.

The schema is compiled, its DDL is derived and then compiled for every
registered dialect. Foreign key cycles are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.settings()
	logger := opts.logger()

	loaded, err := LoadSchema(schemaDir)
	if err != nil {
		loadErr := convertLoadError(err)
		if !loadErr.IsSchemaError() {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidationErrors(formatter, ValidationResult{Errors: []ValidationError{{
			Code:    loadErr.Code,
			Message: loadErr.Message,
			File:    loadErr.File(),
			Line:    loadErr.Line(),
		}}})
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, schemaDir)

	result := ValidationResult{Entities: len(loaded.Registry.Types())}
	for _, name := range dialect.Names() {
		formatter.VerboseLog("Compiling DDL for %s", name)
		d, err := dialect.Lookup(name)
		if err != nil {
			return outputCommandError(formatter, ErrCodeConfig, err.Error())
		}
		ddl, err := buildDDL(cmd.Context(), logger, loaded.Registry, d, cfg)
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Code:    ErrCodeCompileFailed,
				Message: err.Error(),
				Dialect: name,
			})
			continue
		}
		result.Tables, result.Cycles = ddl.Tables, ddl.Cycles
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "⚠ %s\n", c)
	}
	fmt.Fprintf(w, "✓ Schema valid: %d entity(ies), %d table(s)\n", result.Entities, len(result.Tables))
	return nil
}

// outputValidationErrors outputs every validation error (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range errs {
		switch {
		case e.Line > 0:
			fmt.Fprintf(w, "%s:%d\n", e.File, e.Line)
		case e.Dialect != "":
			fmt.Fprintf(w, "dialect %s\n", e.Dialect)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
