package dialect

import (
	"strconv"
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// IdentityInsert is the portable SET parameter toggling explicit inserts
// into identity columns.
const IdentityInsert = "IdentityInsert"

// SQLServer renders Transact-SQL.
type SQLServer struct{ sqlfmt.ANSI }

func (SQLServer) Name() string { return "sqlserver" }

func (SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (SQLServer) Placeholder(i int) string { return "@p" + strconv.Itoa(i) }

func (SQLServer) Paging() sqlfmt.Paging {
	return sqlfmt.Paging{Style: sqlfmt.PagingTop}
}

func (SQLServer) BooleanLiteral(bool) (string, bool) { return "", false }

func (SQLServer) Returning() sqlfmt.ReturningStyle { return sqlfmt.ReturningOutput }

func (SQLServer) SetCommandKeyword(param string) string {
	if param == IdentityInsert {
		return "IDENTITY_INSERT"
	}
	return param
}

func (SQLServer) SetCommandValue(param string, v any) (string, bool) {
	on, ok := v.(bool)
	if param != IdentityInsert || !ok {
		return "", false
	}
	if on {
		return "ON", true
	}
	return "OFF", true
}

func (d SQLServer) ReferenceAction(a expr.ReferenceAction) string {
	if a == expr.ActionRestrict {
		return "NO ACTION"
	}
	return d.ANSI.ReferenceAction(a)
}

func (SQLServer) AutoIncrementClause() string { return "IDENTITY(1,1)" }

func (SQLServer) SupportsIncludedColumns() bool { return true }
func (SQLServer) ClusteredIndexes() bool        { return true }

func (SQLServer) Amenders() []sqlfmt.Amender {
	return []sqlfmt.Amender{
		{Name: "limit", Apply: EmulateSkip},
		{Name: "boolean", Apply: NormalizeBooleans},
	}
}

func (d SQLServer) ResolveFunction(fc *expr.FunctionCall) (sqlfmt.FunctionResolution, error) {
	args := fc.Args
	switch fc.Function {
	case expr.FuncServerUtcNow:
		return sqlfmt.FunctionResolution{Name: "SYSUTCDATETIME"}, nil
	case expr.FuncServerNow:
		return sqlfmt.FunctionResolution{Name: "SYSDATETIME"}, nil
	case expr.FuncDateTimeAddTimeSpan:
		return sqlfmt.FunctionResolution{Template: "DATEADD(SECOND, {1}, {0})", Args: args}, nil
	case expr.FuncConcat:
		return sqlfmt.FunctionResolution{Name: "+", TreatAsOperator: true, Args: args}, nil
	case expr.FuncLength:
		return sqlfmt.FunctionResolution{Name: "LEN", Args: args}, nil
	case expr.FuncTrim:
		return sqlfmt.FunctionResolution{Template: "LTRIM(RTRIM({0}))", Args: args}, nil
	case expr.FuncYear:
		return sqlfmt.FunctionResolution{Name: "YEAR", Args: args}, nil
	case expr.FuncMonth:
		return sqlfmt.FunctionResolution{Name: "MONTH", Args: args}, nil
	case expr.FuncDay:
		return sqlfmt.FunctionResolution{Name: "DAY", Args: args}, nil
	}
	return d.ANSI.ResolveFunction(fc)
}

func (d SQLServer) DataType(t model.Type, opts sqlfmt.TypeOptions) (string, error) {
	switch t.Kind {
	case model.Bool:
		return "BIT", nil
	case model.Uint8:
		return "TINYINT", nil
	case model.Uint16, model.Int32:
		return "INT", nil
	case model.Uint64:
		return "DECIMAL(20)", nil
	case model.Float64:
		return "FLOAT", nil
	case model.String:
		if opts.Length <= 0 {
			if opts.PrimaryKey {
				return "NVARCHAR(450)", nil
			}
			return "NVARCHAR(MAX)", nil
		}
		return "NVARCHAR(" + strconv.Itoa(opts.Length) + ")", nil
	case model.UUID:
		return "UNIQUEIDENTIFIER", nil
	case model.Time:
		return "DATETIME2", nil
	}
	return d.ANSI.DataType(t, opts)
}
