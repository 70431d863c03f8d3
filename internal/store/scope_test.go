package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/compile"
	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/testutil"
)

func str(v string) *expr.Constant { return expr.NewConstant(model.StringType, v) }

// insertPerson compiles an INSERT for the People table.
func insertPerson(t *testing.T, name string, extra ...any) *compile.Compiled {
	t.Helper()
	cols := []string{"Name"}
	vals := []expr.Node{str(name)}
	for i := 0; i+1 < len(extra); i += 2 {
		cols = append(cols, extra[i].(string))
		vals = append(vals, extra[i+1].(expr.Node))
	}
	p := compile.New(dialect.SQLite{}, compile.WithIDGenerator(testutil.NewSequentialIDs("")))
	c, err := p.Compile(context.Background(), &expr.InsertInto{
		Table:       &expr.Table{Name: "People"},
		ColumnNames: cols,
		Values:      vals,
	})
	require.NoError(t, err)
	return c
}

func countPeople(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM "People"`).Scan(&n))
	return n
}

func TestScope_CompleteCommitsCompiledStatements(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	c := insertPerson(t, "Ada", "Email", str("ada@example.com"))
	assert.Equal(t, `INSERT INTO "People"("Name", "Email") VALUES(?, ?)`, c.SQL)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	defer scope.Rollback()

	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))
	require.NoError(t, scope.Enqueue(insertPerson(t, "Grace").SQL, "Grace"))
	assert.Equal(t, 2, scope.Pending())

	require.NoError(t, scope.Complete(ctx))
	assert.Equal(t, 2, countPeople(t, s))
}

func TestScope_FlushReportsResults(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	defer scope.Rollback()

	c := insertPerson(t, "Ada")
	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))
	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))

	results, err := scope.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Result{{RowsAffected: 1, LastInsertID: 1}, {RowsAffected: 1, LastInsertID: 2}}, results)
	assert.Zero(t, scope.Pending())
}

func TestScope_QueryFlushesFirst(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	defer scope.Rollback()

	c := insertPerson(t, "Ada")
	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))

	rows, err := scope.Query(ctx, `SELECT "Name" FROM "People" WHERE "Name" = ?`, "Ada")
	require.NoError(t, err)
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	rows.Close()

	assert.Equal(t, []string{"Ada"}, names)
	assert.Zero(t, scope.Pending())
}

func TestScope_RollbackDiscardsWork(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	c := insertPerson(t, "Ada")
	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))
	_, err = scope.Flush(ctx)
	require.NoError(t, err)

	require.NoError(t, scope.Rollback())
	require.NoError(t, scope.Rollback(), "second rollback is a no-op")

	assert.Equal(t, 0, countPeople(t, s))
	assert.ErrorIs(t, scope.Enqueue(c.SQL), ErrScopeClosed)
	_, err = scope.Flush(ctx)
	assert.ErrorIs(t, err, ErrScopeClosed)
	assert.ErrorIs(t, scope.Complete(ctx), ErrScopeClosed)
}

func TestScope_RollbackAfterCompleteIsNoop(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	c := insertPerson(t, "Ada")
	require.NoError(t, scope.Enqueue(c.SQL, c.Params...))
	require.NoError(t, scope.Complete(ctx))

	assert.NoError(t, scope.Rollback())
	assert.Equal(t, 1, countPeople(t, s))
}

func TestScope_ForeignKeysAreEnforced(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	defer scope.Rollback()

	ok := insertPerson(t, "Ada")
	bad := insertPerson(t, "Bob", "AddressId", expr.NewConstant(model.Int64Type, int64(99)))
	require.NoError(t, scope.Enqueue(ok.SQL, ok.Params...))
	require.NoError(t, scope.Enqueue(bad.SQL, bad.Params...))

	results, err := scope.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush statement 1")
	assert.Len(t, results, 1)
	assert.Equal(t, 1, scope.Pending(), "failing statement stays queued")
}

func TestScope_CompleteRollsBackOnFlushFailure(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)

	scope, err := s.Begin(ctx)
	require.NoError(t, err)

	ok := insertPerson(t, "Ada")
	require.NoError(t, scope.Enqueue(ok.SQL, ok.Params...))
	require.NoError(t, scope.Enqueue(ok.SQL, ok.Params...))
	// Email is UNIQUE.
	dup := insertPerson(t, "Ada", "Email", str("a@example.com"))
	require.NoError(t, scope.Enqueue(dup.SQL, dup.Params...))
	require.NoError(t, scope.Enqueue(dup.SQL, dup.Params...))

	require.Error(t, scope.Complete(ctx))
	assert.Equal(t, 0, countPeople(t, s))
}

func TestScope_BindsUUIDAndDecimal(t *testing.T) {
	ctx := context.Background()
	s := createPeopleStore(t)
	id := uuid.MustParse("0191e6a4-7b1c-7c3e-9f00-1234567890ab")

	scope, err := s.Begin(ctx)
	require.NoError(t, err)
	defer scope.Rollback()

	require.NoError(t, scope.Enqueue(`INSERT INTO "Badge"("Id", "Score") VALUES(?, ?)`, id, decimal.RequireFromString("2.5")))
	require.NoError(t, scope.Complete(ctx))

	rows, err := s.Query(ctx, `SELECT "Score" FROM "Badge" WHERE "Id" = ?`, id)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var score float64
	require.NoError(t, rows.Scan(&score))
	assert.InDelta(t, 2.5, score, 1e-9)
}
