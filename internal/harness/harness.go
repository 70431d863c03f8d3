package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/objsql/internal/compile"
	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/schema"
	"github.com/roach88/objsql/internal/store"
	"github.com/roach88/objsql/internal/testutil"
)

// execDialect is the dialect executed against the in-memory database.
const execDialect = "sqlite"

// Harness runs scenarios. Compilation IDs are fixed so traces are
// reproducible.
type Harness struct {
	logger *slog.Logger
	ids    compile.IDGenerator
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    testutil.FixedID("harness"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load and merge the CUE schemas
//  2. Build the DDL and compile it for every scenario dialect
//  3. Apply the SQLite DDL to the database
//  4. Insert the setup rows, one transaction each
//  5. Evaluate assertions
//
// The returned error covers infrastructure failures (unreadable schema,
// compile errors, database errors). Scenario failures are reported in
// Result.Errors with Pass false.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h.logger.Debug("scenario started", "name", scenario.Name, "specs", len(scenario.Specs))

	reg, err := loadSchemas(scenario.Specs)
	if err != nil {
		return nil, err
	}
	for _, c := range cyclesOf(reg) {
		h.logger.Warn("reference cycle", "scenario", scenario.Name, "cycle", c.String())
	}
	ddl, err := schema.BuildDDL(reg)
	if err != nil {
		return nil, fmt.Errorf("build ddl: %w", err)
	}

	result := NewResult()
	var execSQL []string
	for _, name := range scenario.dialects() {
		stmts, err := h.compileDDL(ctx, name, ddl)
		if err != nil {
			return nil, err
		}
		result.Trace = append(result.Trace, stmts...)
		if name == execDialect {
			execSQL = sqlOf(stmts)
		}
	}
	if execSQL == nil {
		stmts, err := h.compileDDL(ctx, execDialect, ddl)
		if err != nil {
			return nil, err
		}
		execSQL = sqlOf(stmts)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if _, err := st.ApplyDDL(ctx, h.ids.Generate(), execDialect, strings.Join(execSQL, ";\n")); err != nil {
		return nil, err
	}

	inserts, err := h.newPipeline(execDialect)
	if err != nil {
		return nil, err
	}
	for i, step := range scenario.Setup {
		ev, err := h.insert(ctx, st, inserts, reg, step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, *ev)
		switch {
		case step.Fails && ev.Error == "":
			result.AddError(fmt.Sprintf("setup[%d]: insert into %s succeeded, expected a constraint violation", i, ev.Table))
		case !step.Fails && ev.Error != "":
			result.AddError(fmt.Sprintf("setup[%d]: insert into %s failed: %s", i, ev.Table, ev.Error))
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"name", scenario.Name,
		"pass", result.Pass,
		"statements", len(result.Trace),
		"errors", len(result.Errors))
	return result, nil
}

func (h *Harness) newPipeline(name string) (*compile.Pipeline, error) {
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, err
	}
	return compile.New(d, compile.WithLogger(h.logger), compile.WithIDGenerator(h.ids)), nil
}

// compileDDL compiles each DDL statement for one dialect.
func (h *Harness) compileDDL(ctx context.Context, name string, ddl *expr.StatementList) ([]TraceEvent, error) {
	p, err := h.newPipeline(name)
	if err != nil {
		return nil, err
	}
	compiled, err := p.CompileAll(ctx, ddl.Statements)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	out := make([]TraceEvent, len(compiled))
	for i, c := range compiled {
		kind, table := describe(ddl.Statements[i])
		out[i] = TraceEvent{Kind: kind, Dialect: c.Dialect, Table: table, SQL: c.SQL, Params: c.Params}
	}
	return out, nil
}

// insert compiles and executes one setup row in its own transaction.
// A database rejection is recorded on the event, not returned.
func (h *Harness) insert(ctx context.Context, st *store.Store, p *compile.Pipeline, reg *model.Registry, step InsertStep) (*TraceEvent, error) {
	td, ok := reg.TypeDescriptor(step.Insert)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", step.Insert)
	}
	stmt, err := insertFor(td, step.Values)
	if err != nil {
		return nil, err
	}
	c, err := p.Compile(ctx, stmt)
	if err != nil {
		return nil, err
	}
	ev := &TraceEvent{Kind: KindInsert, Dialect: c.Dialect, Table: td.TableName, SQL: c.SQL, Params: c.Params}

	scope, err := st.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer scope.Rollback()
	if err := scope.Enqueue(c.SQL, c.Params...); err != nil {
		return nil, err
	}
	if err := scope.Complete(ctx); err != nil {
		h.logger.Debug("insert rejected", "table", td.TableName, "error", err)
		ev.Error = err.Error()
	}
	return ev, nil
}

// insertFor builds an INSERT whose columns follow the table's column order.
func insertFor(td *model.TypeDescriptor, values map[string]any) (*expr.InsertInto, error) {
	stmt := &expr.InsertInto{Table: expr.NewTable(td, "")}
	used := 0
	for _, col := range model.ColumnInfos(td) {
		name := col.ColumnName()
		v, ok := values[name]
		if !ok {
			continue
		}
		c, err := constantFor(col.DefinitionProperty.Type, v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		stmt.ColumnNames = append(stmt.ColumnNames, name)
		stmt.Values = append(stmt.Values, c)
		used++
	}
	if used != len(values) {
		for name := range values {
			if !slices.Contains(stmt.ColumnNames, name) {
				return nil, fmt.Errorf("%s has no column %q", td.TableName, name)
			}
		}
	}
	return stmt, nil
}

// loadSchemas loads every schema directory into one registry.
func loadSchemas(dirs []string) (*model.Registry, error) {
	merged := model.NewRegistry()
	for _, dir := range dirs {
		reg, err := schema.Load(dir)
		if err != nil {
			return nil, err
		}
		for _, td := range reg.Types() {
			if err := merged.Register(td); err != nil {
				return nil, fmt.Errorf("%s: %w", dir, err)
			}
		}
	}
	return merged, nil
}

func cyclesOf(m model.Model) []schema.ReferenceCycle {
	_, cycles := schema.CreationOrder(m)
	return cycles
}

func describe(n expr.Node) (kind, table string) {
	switch s := n.(type) {
	case *expr.CreateTable:
		return KindCreateTable, s.Table.Name
	case *expr.CreateIndex:
		return KindCreateIndex, s.Table.Name
	case *expr.InsertInto:
		return KindInsert, s.Table.Name
	}
	return n.Kind().String(), ""
}

func sqlOf(events []TraceEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.SQL
	}
	return out
}
