package dialect

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
	"github.com/roach88/objsql/internal/sqlfmt"
)

func col(name string, t model.Type) *expr.Column { return expr.NewColumn("p", name, t) }

func int32c(v int32) *expr.Constant { return expr.NewConstant(model.Int32Type, v) }

func peopleSelect() *expr.Select {
	return &expr.Select{
		Alias: "p",
		Columns: []expr.ColumnDeclaration{
			{Name: "Id", Expr: col("Id", model.Int64Type)},
			{Name: "Name", Expr: col("FirstName", model.StringType)},
		},
		From: &expr.Table{Name: "People", Alias: "p"},
	}
}

func render(t *testing.T, n expr.Node, d sqlfmt.Dialect) string {
	t.Helper()
	res, err := sqlfmt.Format(n, d, sqlfmt.Options{InlineConstants: true})
	require.NoError(t, err)
	return res.SQL
}

// counterTable has an auto-increment column outside a single-column key.
func counterTable() *expr.CreateTable {
	return &expr.CreateTable{
		Table: &expr.Table{Name: "Counter"},
		Columns: []*expr.ColumnDefinition{
			{Name: "Id", DataType: model.Int64Type, Constraints: []*expr.Constraint{
				{ConstraintType: expr.ConstraintNotNull},
				{ConstraintType: expr.ConstraintAutoIncrement},
			}},
			{Name: "Code", DataType: model.StringType, Length: 16, Constraints: []*expr.Constraint{
				{ConstraintType: expr.ConstraintNotNull},
			}},
			{Name: "Hits", DataType: model.Int32Type, Constraints: []*expr.Constraint{
				{ConstraintType: expr.ConstraintNotNull},
				{ConstraintType: expr.ConstraintDefault, Default: int32c(0)},
			}},
			{Name: "Flag", DataType: model.BoolType, Constraints: []*expr.Constraint{
				{ConstraintType: expr.ConstraintNotNull},
				{ConstraintType: expr.ConstraintDefault, Default: expr.True()},
			}},
		},
		Constraints: []*expr.Constraint{
			{ConstraintType: expr.ConstraintPrimaryKey, ColumnNames: []string{"Code"}},
		},
	}
}

func TestLookup(t *testing.T) {
	d, err := Lookup("SQLite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Lookup("oracle")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	assert.Equal(t, []string{"ansi", "mysql", "postgres", "sqlite", "sqlserver"}, Names())
	for _, name := range Names() {
		d, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}
}

func TestCreateTable_PerDialect(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, name := range []string{"sqlserver", "mysql", "sqlite", "postgres"} {
		t.Run(name, func(t *testing.T) {
			d, err := Lookup(name)
			require.NoError(t, err)
			g.Assert(t, "create_table_"+name, []byte(render(t, counterTable(), d)))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	sel := peopleSelect()
	sel.Where = expr.AndAlso(
		expr.NewBinary(expr.OpGreaterThan, col("Age", model.Int32Type), int32c(18)),
		expr.Equal(col("FirstName", model.StringType), expr.NewConstant(model.StringType, "Ada")),
	)

	tests := []struct {
		d    sqlfmt.Dialect
		want string
	}{
		{SQLServer{}, "SELECT [p].[Id], [p].[FirstName] AS [Name] FROM [People] AS [p] WHERE ([p].[Age] > @p0) AND ([p].[FirstName] = @p1)"},
		{Postgres{}, `SELECT "p"."Id", "p"."FirstName" AS "Name" FROM "People" AS "p" WHERE ("p"."Age" > $1) AND ("p"."FirstName" = $2)`},
		{MySQL{}, "SELECT `p`.`Id`, `p`.`FirstName` AS `Name` FROM `People` AS `p` WHERE (`p`.`Age` > ?) AND (`p`.`FirstName` = ?)"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			res, err := sqlfmt.Format(sel, tt.d, sqlfmt.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SQL)
			assert.Equal(t, []any{int32(18), "Ada"}, res.Params)
		})
	}
}

func TestQuoteIdentifier_Escapes(t *testing.T) {
	assert.Equal(t, "[a]]b]", SQLServer{}.QuoteIdentifier("a]b"))
	assert.Equal(t, "`a``b`", MySQL{}.QuoteIdentifier("a`b"))
	assert.Equal(t, `"a""b"`, SQLite{}.QuoteIdentifier(`a"b`))
	assert.Equal(t, `"Plain"`, Postgres{}.QuoteIdentifier("Plain"))
}

func TestPaging_LimitOffset(t *testing.T) {
	tests := []struct {
		d          sqlfmt.Dialect
		skipOnly   string
		skipAndTop string
	}{
		{MySQL{}, " LIMIT 18446744073709551615 OFFSET 10", " LIMIT 5 OFFSET 10"},
		{SQLite{}, " LIMIT -1 OFFSET 10", " LIMIT 5 OFFSET 10"},
		{Postgres{}, " OFFSET 10", " LIMIT 5 OFFSET 10"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			sel := &expr.Select{From: &expr.Table{Name: "T"}, Skip: int32c(10)}
			assert.Equal(t, "SELECT * FROM "+tt.d.QuoteIdentifier("T")+tt.skipOnly, render(t, sel, tt.d))

			sel.Take = int32c(5)
			assert.Equal(t, "SELECT * FROM "+tt.d.QuoteIdentifier("T")+tt.skipAndTop, render(t, sel, tt.d))
		})
	}
}

func TestSQLServer_Take(t *testing.T) {
	sel := peopleSelect()
	sel.Take = int32c(5)

	assert.Equal(t, "SELECT TOP(5) [p].[Id], [p].[FirstName] AS [Name] FROM [People] AS [p]", render(t, sel, SQLServer{}))
}

func TestSQLServer_SkipIsEmulated(t *testing.T) {
	sel := peopleSelect()
	sel.OrderBy = []*expr.OrderBy{{Expr: col("Id", model.Int64Type)}}
	sel.Skip = int32c(10)

	got := render(t, sel, SQLServer{})

	assert.Equal(t, "SELECT [p_inner].[Id], [p_inner].[Name] FROM "+
		"(SELECT [p].[Id], [p].[FirstName] AS [Name], ROW_NUMBER() OVER (ORDER BY [p].[Id]) AS [__rownum] FROM [People] AS [p]) AS [p_inner] "+
		"WHERE [p_inner].[__rownum] > 10 ORDER BY [p_inner].[__rownum]", got)
}

func TestEmulateSkip(t *testing.T) {
	t.Run("unordered select numbers by a constant", func(t *testing.T) {
		sel := peopleSelect()
		sel.Skip = int32c(3)

		out, err := EmulateSkip(sel)
		require.NoError(t, err)

		outer := out.(*expr.Select)
		assert.Nil(t, outer.Skip)
		inner := outer.From.(*expr.Select)
		assert.Equal(t, "p_inner", inner.Alias)
		assert.Nil(t, inner.Skip)
		assert.Nil(t, inner.OrderBy)
		rn, ok := inner.Column(RowNumberColumn)
		require.True(t, ok)
		assert.Equal(t, "ROW_NUMBER() OVER (ORDER BY (SELECT 1))", render(t, rn.Expr, sqlfmt.ANSI{}))
	})

	t.Run("is idempotent", func(t *testing.T) {
		sel := peopleSelect()
		sel.Skip = int32c(3)

		once, err := EmulateSkip(sel)
		require.NoError(t, err)
		twice, err := EmulateSkip(once)
		require.NoError(t, err)
		assert.Same(t, once, twice)
	})

	t.Run("leaves skip with take alone", func(t *testing.T) {
		sel := peopleSelect()
		sel.Skip, sel.Take = int32c(3), int32c(4)

		out, err := EmulateSkip(sel)
		require.NoError(t, err)
		assert.Same(t, sel, out)

		_, err = sqlfmt.Format(sel, SQLServer{}, sqlfmt.Options{})
		assert.ErrorIs(t, err, sqlfmt.ErrCombinedPaging)
	})

	t.Run("requires explicit columns", func(t *testing.T) {
		sel := &expr.Select{From: &expr.Table{Name: "T"}, Skip: int32c(1)}

		_, err := EmulateSkip(sel)
		assert.True(t, qerr.IsContractViolation(err))
	})
}

func TestNormalizeBooleans(t *testing.T) {
	active := col("Active", model.BoolType)
	adult := expr.NewBinary(expr.OpGreaterThan, col("Age", model.Int32Type), int32c(18))

	tests := []struct {
		name  string
		where expr.Node
		cols  []expr.ColumnDeclaration
		want  string
	}{
		{
			name:  "bool column as predicate",
			where: active,
			want:  "SELECT * FROM [People] AS [p] WHERE [p].[Active] = 1",
		},
		{
			name:  "bool literal compared",
			where: expr.Equal(active, expr.True()),
			want:  "SELECT * FROM [People] AS [p] WHERE [p].[Active] = 1",
		},
		{
			name:  "constant predicate",
			where: expr.True(),
			want:  "SELECT * FROM [People] AS [p] WHERE 1 = 1",
		},
		{
			name:  "logical operands",
			where: expr.AndAlso(active, expr.Not(active)),
			want:  "SELECT * FROM [People] AS [p] WHERE ([p].[Active] = 1) AND NOT ([p].[Active] = 1)",
		},
		{
			name: "predicate as value",
			cols: []expr.ColumnDeclaration{{Name: "Adult", Expr: adult}},
			want: "SELECT CASE WHEN [p].[Age] > 18 THEN 1 ELSE 0 END AS [Adult] FROM [People] AS [p]",
		},
		{
			name: "bool column as value",
			cols: []expr.ColumnDeclaration{{Name: "Active", Expr: active}},
			want: "SELECT [p].[Active] FROM [People] AS [p]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &expr.Select{Columns: tt.cols, From: &expr.Table{Name: "People", Alias: "p"}, Where: tt.where}
			assert.Equal(t, tt.want, render(t, sel, SQLServer{}))

			once, err := NormalizeBooleans(sel)
			require.NoError(t, err)
			twice, err := NormalizeBooleans(once)
			require.NoError(t, err)
			assert.Same(t, once, twice)
		})
	}
}

func TestNormalizeBooleans_PartialIndexFilter(t *testing.T) {
	idx := &expr.CreateIndex{
		Name:    "IX_Active",
		Table:   &expr.Table{Name: "People"},
		Columns: []*expr.IndexedColumn{{Column: expr.NewColumn("", "Email", model.StringType)}},
		Where:   expr.NewColumn("", "Active", model.BoolType),
	}

	assert.Equal(t, "CREATE INDEX [IX_Active] ON [People]([Email]) WHERE [Active] = 1", render(t, idx, SQLServer{}))
}

func TestAmendAutoIncrement(t *testing.T) {
	t.Run("moves the key and keeps it unique", func(t *testing.T) {
		out, err := AmendAutoIncrement(counterTable())
		require.NoError(t, err)

		ct := out.(*expr.CreateTable)
		require.Len(t, ct.Constraints, 2)
		assert.Equal(t, expr.ConstraintPrimaryKey, ct.Constraints[0].ConstraintType)
		assert.Equal(t, []string{"Id"}, ct.Constraints[0].ColumnNames)
		assert.Equal(t, expr.ConstraintUnique, ct.Constraints[1].ConstraintType)
		assert.Equal(t, []string{"Code", "Id"}, ct.Constraints[1].ColumnNames)
		assertAutoIncrementInKey(t, ct)
	})

	t.Run("adds a key when none exists", func(t *testing.T) {
		in := counterTable().ChangeConstraints([]*expr.Constraint{
			{ConstraintType: expr.ConstraintUnique, ColumnNames: []string{"Code"}},
		})

		out, err := AmendAutoIncrement(in)
		require.NoError(t, err)

		ct := out.(*expr.CreateTable)
		require.Len(t, ct.Constraints, 2)
		assert.Equal(t, []string{"Code"}, ct.Constraints[0].ColumnNames)
		assert.Equal(t, []string{"Id"}, ct.Constraints[1].ColumnNames)
		assertAutoIncrementInKey(t, ct)
	})

	t.Run("clears column level keys", func(t *testing.T) {
		in := counterTable()
		in.Constraints = nil
		in.Columns[1] = in.Columns[1].ChangeConstraints([]*expr.Constraint{
			{ConstraintType: expr.ConstraintNotNull | expr.ConstraintPrimaryKey},
		})

		out, err := AmendAutoIncrement(in)
		require.NoError(t, err)

		ct := out.(*expr.CreateTable)
		assert.False(t, ct.Columns[1].Has(expr.ConstraintPrimaryKey))
		assert.True(t, ct.Columns[1].Has(expr.ConstraintNotNull))
		assert.Equal(t, []string{"Code", "Id"}, ct.Constraints[1].ColumnNames)
		assertAutoIncrementInKey(t, ct)
	})

	t.Run("leaves a keyed column alone", func(t *testing.T) {
		in := counterTable().ChangeConstraints([]*expr.Constraint{
			{ConstraintType: expr.ConstraintPrimaryKey, ColumnNames: []string{"Id"}},
		})

		out, err := AmendAutoIncrement(in)
		require.NoError(t, err)
		assert.Same(t, in, out)
	})

	t.Run("rejects two auto-increment columns", func(t *testing.T) {
		in := counterTable()
		in.Columns[2] = in.Columns[2].ChangeConstraints([]*expr.Constraint{{ConstraintType: expr.ConstraintAutoIncrement}})

		_, err := AmendAutoIncrement(in)
		require.Error(t, err)
		assert.True(t, qerr.IsUnsupported(err))
		assert.Contains(t, err.Error(), "Id, Hits")
	})

	t.Run("is idempotent", func(t *testing.T) {
		once, err := AmendAutoIncrement(counterTable())
		require.NoError(t, err)
		twice, err := AmendAutoIncrement(once)
		require.NoError(t, err)
		assert.Same(t, once, twice)
	})
}

func assertAutoIncrementInKey(t *testing.T, ct *expr.CreateTable) {
	t.Helper()
	keys, _ := primaryKey(ct)
	for _, c := range ct.Columns {
		if c.Has(expr.ConstraintAutoIncrement) {
			assert.Contains(t, keys, c.Name)
		}
	}
}

func TestInlineAutoIncrementKey(t *testing.T) {
	in := counterTable().ChangeConstraints([]*expr.Constraint{
		{ConstraintType: expr.ConstraintPrimaryKey, ColumnNames: []string{"Id"}},
	})

	out, err := InlineAutoIncrementKey(in)
	require.NoError(t, err)

	ct := out.(*expr.CreateTable)
	assert.Empty(t, ct.Constraints)
	assert.True(t, ct.Columns[0].Has(expr.ConstraintPrimaryKey|expr.ConstraintAutoIncrement))
	assert.Len(t, in.Constraints, 1, "input is not mutated")
}

func TestDML_PerDialect(t *testing.T) {
	people := &expr.Table{Name: "People"}
	insert := &expr.InsertInto{
		Table:       people,
		ColumnNames: []string{"FirstName"},
		Values:      []expr.Node{expr.NewConstant(model.StringType, "Ada")},
		Returning:   []string{"Id"},
	}
	defaults := &expr.InsertInto{Table: people, Returning: []string{"Id"}}

	assert.Equal(t, "INSERT INTO [People]([FirstName]) OUTPUT [INSERTED].[Id] VALUES('Ada')", render(t, insert, SQLServer{}))
	assert.Equal(t, "INSERT INTO [People] OUTPUT [INSERTED].[Id] DEFAULT VALUES", render(t, defaults, SQLServer{}))
	assert.Equal(t, `INSERT INTO "People"("FirstName") VALUES('Ada') RETURNING "Id"`, render(t, insert, SQLite{}))
	assert.Equal(t, `INSERT INTO "People" DEFAULT VALUES RETURNING "Id"`, render(t, defaults, Postgres{}))
	assert.Equal(t, "INSERT INTO `People` () VALUES()", render(t, defaults, MySQL{}))
}

func TestSetCommand_IdentityInsert(t *testing.T) {
	set := &expr.SetCommand{Parameter: IdentityInsert, Target: &expr.Table{Name: "People"}, Arguments: []expr.Node{expr.True()}}
	assert.Equal(t, "SET IDENTITY_INSERT [People] ON", render(t, set, SQLServer{}))

	set.Arguments = []expr.Node{expr.False()}
	assert.Equal(t, "SET IDENTITY_INSERT [People] OFF", render(t, set, SQLServer{}))
}

func TestFunctions_PerDialect(t *testing.T) {
	now := expr.Func(expr.FuncServerUtcNow, model.TimeType)
	concat := expr.NewBinary(expr.OpAdd, col("FirstName", model.StringType), col("LastName", model.StringType))
	addMinute := expr.Func(expr.FuncDateTimeAddTimeSpan, model.TimeType, col("Born", model.TimeType), int32c(60))
	year := expr.Func(expr.FuncYear, model.Int32Type, col("Born", model.TimeType))

	tests := []struct {
		d                      sqlfmt.Dialect
		now, concat, add, year string
	}{
		{
			SQLServer{}, "SYSUTCDATETIME()", "[p].[FirstName] + [p].[LastName]",
			"DATEADD(SECOND, 60, [p].[Born])", "YEAR([p].[Born])",
		},
		{
			MySQL{}, "UTC_TIMESTAMP()", "CONCAT(`p`.`FirstName`, `p`.`LastName`)",
			"DATE_ADD(`p`.`Born`, INTERVAL 60 SECOND)", "YEAR(`p`.`Born`)",
		},
		{
			SQLite{}, "DATETIME('now')", `"p"."FirstName" || "p"."LastName"`,
			`DATETIME("p"."Born", '+' || 60 || ' seconds')`, `CAST(STRFTIME('%Y', "p"."Born") AS INTEGER)`,
		},
		{
			Postgres{}, "(NOW() AT TIME ZONE 'UTC')", `"p"."FirstName" || "p"."LastName"`,
			`"p"."Born" + 60 * INTERVAL '1 second'`, `EXTRACT(YEAR FROM "p"."Born")`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			assert.Equal(t, tt.now, render(t, now, tt.d))
			assert.Equal(t, tt.concat, render(t, concat, tt.d))
			assert.Equal(t, tt.add, render(t, addMinute, tt.d))
			assert.Equal(t, tt.year, render(t, year, tt.d))
		})
	}
}

func TestCreateIndex_PerDialect(t *testing.T) {
	nonClustered := false
	idx := &expr.CreateIndex{
		Name:            "IX_People_Email",
		Table:           &expr.Table{Name: "People"},
		IfNotExist:      true,
		Clustered:       &nonClustered,
		Columns:         []*expr.IndexedColumn{{Column: expr.NewColumn("", "Email", model.StringType)}},
		IncludedColumns: []*expr.IndexedColumn{{Column: expr.NewColumn("", "Age", model.Int32Type)}},
	}

	assert.Equal(t, "CREATE NONCLUSTERED INDEX [IX_People_Email] ON [People]([Email]) INCLUDE([Age])", render(t, idx, SQLServer{}))
	assert.Equal(t, `CREATE INDEX IF NOT EXISTS "IX_People_Email" ON "People"("Email") INCLUDE("Age")`, render(t, idx, Postgres{}))

	_, err := sqlfmt.Format(idx, MySQL{}, sqlfmt.Options{})
	require.Error(t, err)
	assert.True(t, qerr.IsUnsupported(err))
	assert.Contains(t, err.Error(), "[mysql]")
}
