package compile

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
	"github.com/roach88/objsql/internal/testutil"
)

func int32c(v int32) *expr.Constant { return expr.NewConstant(model.Int32Type, v) }

func peopleWhere(where expr.Node) *expr.Select {
	return &expr.Select{
		Alias:   "p",
		Columns: []expr.ColumnDeclaration{{Name: "Id", Expr: expr.NewColumn("p", "Id", model.Int64Type)}},
		From:    &expr.Table{Name: "People", Alias: "p"},
		Where:   where,
	}
}

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	d, err := dialect.Lookup("sqlite")
	require.NoError(t, err)
	opts = append([]Option{WithIDGenerator(testutil.NewSequentialIDs(""))}, opts...)
	return New(d, opts...)
}

func TestCompile_ObjectComparison(t *testing.T) {
	f := testutil.NewFixture()
	id := testutil.Prop(f.Person, "Id")
	row := &expr.ObjectReference{
		T:        model.EntityType(f.Person),
		Bindings: []expr.MemberBinding{expr.Bind(id, expr.NewColumn("p", "Id", model.Int64Type))},
	}
	client := &expr.MemberInit{
		New:      &expr.New{T: model.EntityType(f.Person)},
		Bindings: []expr.MemberBinding{expr.Bind(id, expr.NewConstant(model.Int64Type, int64(7)))},
	}

	got, err := newPipeline(t).Compile(context.Background(), peopleWhere(expr.Equal(row, client)))
	require.NoError(t, err)

	assert.Equal(t, `SELECT "p"."Id" FROM "People" AS "p" WHERE "p"."Id" = ?`, got.SQL)
	assert.Equal(t, []any{int64(7)}, got.Params)
	assert.Equal(t, "sqlite", got.Dialect)
	assert.Equal(t, "compile-1", got.ID)
}

func TestCompile_FoldsClientSideArithmetic(t *testing.T) {
	where := expr.NewBinary(expr.OpGreaterThan,
		expr.NewColumn("p", "Age", model.Int32Type),
		expr.NewBinary(expr.OpAdd, int32c(10), int32c(8)))

	got, err := newPipeline(t).Compile(context.Background(), peopleWhere(where))
	require.NoError(t, err)

	assert.Equal(t, `SELECT "p"."Id" FROM "People" AS "p" WHERE "p"."Age" > ?`, got.SQL)
	assert.Equal(t, []any{int32(18)}, got.Params)
}

func TestCompile_Errors(t *testing.T) {
	t.Run("evaluation failure names the pass", func(t *testing.T) {
		where := expr.Equal(expr.NewColumn("p", "Age", model.Int32Type),
			expr.NewBinary(expr.OpDivide, int32c(1), int32c(0)))

		_, err := newPipeline(t).Compile(context.Background(), peopleWhere(where))

		require.Error(t, err)
		assert.True(t, qerr.IsEvaluationFailure(err))
		assert.Contains(t, err.Error(), "partial-evaluate: ")
	})

	t.Run("unreduced nodes are unsupported", func(t *testing.T) {
		where := expr.Equal(&expr.Parameter{Name: "x", T: model.Int32Type}, int32c(1))

		_, err := newPipeline(t).Compile(context.Background(), peopleWhere(where))

		require.Error(t, err)
		assert.True(t, qerr.IsUnsupported(err))
	})

	t.Run("nil tree", func(t *testing.T) {
		_, err := newPipeline(t).Compile(context.Background(), nil)
		assert.True(t, qerr.IsContractViolation(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newPipeline(t).Compile(ctx, peopleWhere(nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCompile_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := newPipeline(t, WithMetrics(m))

	_, err := p.Compile(context.Background(), peopleWhere(nil))
	require.NoError(t, err)
	_, err = p.Compile(context.Background(), peopleWhere(&expr.Parameter{Name: "x", T: model.BoolType}))
	require.Error(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Compilations.WithLabelValues("sqlite", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Compilations.WithLabelValues("sqlite", "error")))
	assert.Equal(t, 4, promtest.CollectAndCount(m.PassDuration))
}

func TestCompile_LogsPasses(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := newPipeline(t, WithLogger(logger)).Compile(context.Background(), peopleWhere(nil))
	require.NoError(t, err)

	out := buf.String()
	for _, pass := range []string{"partial-evaluate", "expand-objects", "lift-aggregates", "format"} {
		assert.Contains(t, out, "pass="+pass)
	}
	assert.Contains(t, out, "id=compile-1")
	assert.Contains(t, out, "msg=compiled")
}

func TestOptimize_LeavesFormattingToCaller(t *testing.T) {
	sel := peopleWhere(expr.NewBinary(expr.OpGreaterThan, expr.NewColumn("p", "Age", model.Int32Type), int32c(18)))

	got, err := newPipeline(t).Optimize(context.Background(), sel)
	require.NoError(t, err)

	assert.Same(t, expr.Node(sel), got)
}

func TestCompileAll(t *testing.T) {
	p := newPipeline(t, WithIDGenerator(testutil.FixedID("batch")))
	nodes := []expr.Node{
		&expr.Delete{Table: &expr.Table{Name: "A"}},
		&expr.Delete{Table: &expr.Table{Name: "B"}},
		&expr.Delete{Table: &expr.Table{Name: "C"}},
	}

	got, err := p.CompileAll(context.Background(), nodes)
	require.NoError(t, err)

	sqls := make([]string, len(got))
	for i, c := range got {
		sqls[i] = c.SQL
		assert.Equal(t, "batch", c.ID)
	}
	want := []string{`DELETE FROM "A"`, `DELETE FROM "B"`, `DELETE FROM "C"`}
	if diff := cmp.Diff(want, sqls); diff != "" {
		t.Errorf("CompileAll order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileAll_ReportsFailingStatement(t *testing.T) {
	nodes := []expr.Node{
		&expr.Delete{Table: &expr.Table{Name: "A"}},
		&expr.Delete{Table: &expr.Table{Name: "B"}, Where: &expr.Parameter{Name: "x", T: model.BoolType}},
	}

	_, err := newPipeline(t).CompileAll(context.Background(), nodes)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 1: ")
	assert.True(t, qerr.IsUnsupported(err))
}
