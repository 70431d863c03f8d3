package dialect

import (
	"strconv"
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// Postgres renders PostgreSQL 11 or later.
type Postgres struct{ sqlfmt.ANSI }

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(i int) string { return "$" + strconv.Itoa(i+1) }

func (Postgres) Paging() sqlfmt.Paging {
	return sqlfmt.Paging{Style: sqlfmt.PagingLimitOffset, Combined: true}
}

func (Postgres) Returning() sqlfmt.ReturningStyle { return sqlfmt.ReturningClause }

// AutoIncrementClause is empty: SERIAL types carry the sequence.
func (Postgres) AutoIncrementClause() string { return "" }

func (Postgres) SupportsIndexIfNotExists() bool { return true }
func (Postgres) SupportsIncludedColumns() bool  { return true }

func (d Postgres) ResolveFunction(fc *expr.FunctionCall) (sqlfmt.FunctionResolution, error) {
	args := fc.Args
	switch fc.Function {
	case expr.FuncServerUtcNow:
		return sqlfmt.FunctionResolution{Template: "(NOW() AT TIME ZONE 'UTC')"}, nil
	case expr.FuncServerNow:
		return sqlfmt.FunctionResolution{Name: "NOW"}, nil
	case expr.FuncDateTimeAddTimeSpan:
		return sqlfmt.FunctionResolution{Template: "{0} + {1} * INTERVAL '1 second'", Args: args}, nil
	case expr.FuncLength:
		return sqlfmt.FunctionResolution{Name: "LENGTH", Args: args}, nil
	}
	return d.ANSI.ResolveFunction(fc)
}

func (d Postgres) DataType(t model.Type, opts sqlfmt.TypeOptions) (string, error) {
	if opts.AutoIncrement {
		switch t.Kind {
		case model.Int8, model.Uint8, model.Int16, model.Uint16, model.Int32:
			return "SERIAL", nil
		case model.Uint32, model.Int64:
			return "BIGSERIAL", nil
		}
	}
	switch t.Kind {
	case model.Decimal:
		return "NUMERIC(38, 9)", nil
	case model.String:
		if opts.Length <= 0 {
			return "TEXT", nil
		}
	case model.UUID:
		return "UUID", nil
	}
	return d.ANSI.DataType(t, opts)
}
