package dialect

import (
	"strconv"
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// MySQL renders MySQL 8 SQL.
type MySQL struct{ sqlfmt.ANSI }

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Paging() sqlfmt.Paging {
	return sqlfmt.Paging{Style: sqlfmt.PagingLimitOffset, Combined: true, UnboundedLimit: "18446744073709551615"}
}

func (MySQL) AutoIncrementClause() string { return "AUTO_INCREMENT" }

func (MySQL) DefaultValuesClause() string { return " () VALUES()" }

func (MySQL) Amenders() []sqlfmt.Amender {
	return []sqlfmt.Amender{
		{Name: "auto-increment", Apply: AmendAutoIncrement},
	}
}

func (d MySQL) ResolveFunction(fc *expr.FunctionCall) (sqlfmt.FunctionResolution, error) {
	args := fc.Args
	switch fc.Function {
	case expr.FuncConcat:
		return sqlfmt.FunctionResolution{Name: "CONCAT", Args: args}, nil
	case expr.FuncServerUtcNow:
		return sqlfmt.FunctionResolution{Name: "UTC_TIMESTAMP"}, nil
	case expr.FuncServerNow:
		return sqlfmt.FunctionResolution{Name: "NOW"}, nil
	case expr.FuncDateTimeAddTimeSpan:
		return sqlfmt.FunctionResolution{Template: "DATE_ADD({0}, INTERVAL {1} SECOND)", Args: args}, nil
	case expr.FuncYear:
		return sqlfmt.FunctionResolution{Name: "YEAR", Args: args}, nil
	case expr.FuncMonth:
		return sqlfmt.FunctionResolution{Name: "MONTH", Args: args}, nil
	case expr.FuncDay:
		return sqlfmt.FunctionResolution{Name: "DAY", Args: args}, nil
	}
	return d.ANSI.ResolveFunction(fc)
}

func (d MySQL) DataType(t model.Type, opts sqlfmt.TypeOptions) (string, error) {
	switch t.Kind {
	case model.Bool:
		return "TINYINT(1)", nil
	case model.Int8:
		return "TINYINT", nil
	case model.Uint8:
		return "TINYINT UNSIGNED", nil
	case model.Uint16:
		return "SMALLINT UNSIGNED", nil
	case model.Int32:
		return "INT", nil
	case model.Uint32:
		return "INT UNSIGNED", nil
	case model.Uint64:
		return "BIGINT UNSIGNED", nil
	case model.Float32:
		return "FLOAT", nil
	case model.Float64:
		return "DOUBLE", nil
	case model.String:
		if opts.Length <= 0 && !opts.PrimaryKey {
			return "LONGTEXT", nil
		}
		return "VARCHAR(" + strconv.Itoa(sqlfmt.LengthOr(opts.Length, 255)) + ")", nil
	case model.Time:
		return "DATETIME(6)", nil
	}
	return d.ANSI.DataType(t, opts)
}
