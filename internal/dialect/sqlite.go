package dialect

import (
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// SQLite renders SQL for SQLite 3.35 or later.
type SQLite struct{ sqlfmt.ANSI }

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Paging() sqlfmt.Paging {
	return sqlfmt.Paging{Style: sqlfmt.PagingLimitOffset, Combined: true, UnboundedLimit: "-1"}
}

func (SQLite) BooleanLiteral(v bool) (string, bool) {
	if v {
		return "1", true
	}
	return "0", true
}

func (SQLite) Returning() sqlfmt.ReturningStyle { return sqlfmt.ReturningClause }

func (SQLite) AutoIncrementClause() string { return "AUTOINCREMENT" }

func (SQLite) SupportsIndexIfNotExists() bool { return true }

func (SQLite) Amenders() []sqlfmt.Amender {
	return []sqlfmt.Amender{
		{Name: "auto-increment", Apply: AmendAutoIncrement},
		{Name: "inline-primary-key", Apply: InlineAutoIncrementKey},
	}
}

func (d SQLite) ResolveFunction(fc *expr.FunctionCall) (sqlfmt.FunctionResolution, error) {
	args := fc.Args
	switch fc.Function {
	case expr.FuncLength:
		return sqlfmt.FunctionResolution{Name: "LENGTH", Args: args}, nil
	case expr.FuncSubstring:
		return sqlfmt.FunctionResolution{Name: "SUBSTR", Args: args}, nil
	case expr.FuncServerUtcNow:
		return sqlfmt.FunctionResolution{Template: "DATETIME('now')"}, nil
	case expr.FuncServerNow:
		return sqlfmt.FunctionResolution{Template: "DATETIME('now', 'localtime')"}, nil
	case expr.FuncDateTimeAddTimeSpan:
		return sqlfmt.FunctionResolution{Template: "DATETIME({0}, '+' || {1} || ' seconds')", Args: args}, nil
	case expr.FuncYear:
		return sqlfmt.FunctionResolution{Template: "CAST(STRFTIME('%Y', {0}) AS INTEGER)", Args: args}, nil
	case expr.FuncMonth:
		return sqlfmt.FunctionResolution{Template: "CAST(STRFTIME('%m', {0}) AS INTEGER)", Args: args}, nil
	case expr.FuncDay:
		return sqlfmt.FunctionResolution{Template: "CAST(STRFTIME('%d', {0}) AS INTEGER)", Args: args}, nil
	}
	return d.ANSI.ResolveFunction(fc)
}

// DataType maps every integer kind to INTEGER so that an auto-increment
// primary key becomes the rowid alias.
func (d SQLite) DataType(t model.Type, opts sqlfmt.TypeOptions) (string, error) {
	switch {
	case t.Kind == model.Bool || t.Kind.IsInteger():
		return "INTEGER", nil
	}
	switch t.Kind {
	case model.Float32, model.Float64:
		return "REAL", nil
	case model.Decimal:
		return "NUMERIC", nil
	case model.String, model.UUID:
		return "TEXT", nil
	case model.Time:
		return "DATETIME", nil
	}
	return d.ANSI.DataType(t, opts)
}
