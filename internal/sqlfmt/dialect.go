package sqlfmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
)

// ErrUnknownFunction is returned by ResolveFunction for functions the
// dialect has no rendering for.
var ErrUnknownFunction = errors.New("no rendering for function")

// ErrUnsupportedType is returned by DataType for kinds the dialect cannot
// store.
var ErrUnsupportedType = errors.New("no column type for kind")

// PagingStyle selects how Skip and Take are rendered.
type PagingStyle int

const (
	// PagingOffsetFetch renders OFFSET n ROWS FETCH NEXT m ROWS ONLY.
	PagingOffsetFetch PagingStyle = iota

	// PagingLimitOffset renders trailing LIMIT m OFFSET n.
	PagingLimitOffset

	// PagingTop renders a leading TOP(m). Skip cannot be rendered and must
	// be rewritten by an amender before emission.
	PagingTop
)

// Paging describes a dialect's paging support.
type Paging struct {
	Style PagingStyle

	// Combined reports whether Skip and Take may appear on the same select.
	Combined bool

	// UnboundedLimit is the LIMIT literal used when only Skip is set.
	UnboundedLimit string
}

// ReturningStyle selects how generated keys are read back after INSERT.
type ReturningStyle int

const (
	ReturningNone   ReturningStyle = iota
	ReturningClause                // trailing RETURNING c, ...
	ReturningOutput                // OUTPUT INSERTED.c, ... before VALUES
)

// TypeOptions refines a column type choice.
type TypeOptions struct {
	Length        int
	AutoIncrement bool
	PrimaryKey    bool
}

// FunctionResolution is how a portable function is written in a dialect.
//
// Exactly one rendering applies, checked in this order:
//   - Template: text with {0}, {1}, ... argument placeholders
//   - TreatAsOperator: Args joined with " Name "
//   - ExcludeParens: Name alone, arguments ignored
//   - otherwise Name(Args...)
type FunctionResolution struct {
	Name            string
	Args            []expr.Node
	TreatAsOperator bool
	ExcludeParens   bool
	Template        string
}

// Pass is one tree-to-tree rewrite.
type Pass func(expr.Node) (expr.Node, error)

// Amender is a named dialect pre-processing pass. Amenders run in order
// after the optimizer and before emission.
type Amender struct {
	Name  string
	Apply Pass
}

// Dialect is the plug-in contract of the formatter. Each method is an
// override point; ANSI supplies the defaults and concrete dialects embed it.
type Dialect interface {
	Name() string

	// QuoteIdentifier quotes an already-normalised identifier.
	QuoteIdentifier(name string) string

	// Placeholder returns the marker for the i-th parameter, counting from 0.
	Placeholder(i int) string

	ResolveFunction(fc *expr.FunctionCall) (FunctionResolution, error)

	Paging() Paging

	// BooleanLiteral returns the literal for v, or false when the dialect
	// has no boolean literals and needs comparisons instead.
	BooleanLiteral(v bool) (string, bool)

	Returning() ReturningStyle

	// SetCommandKeyword maps a portable SET parameter name to the keyword.
	SetCommandKeyword(param string) string

	// SetCommandValue renders a constant SET argument in dialect-specific
	// form, e.g. ON/OFF. ok is false to fall back to "= value".
	SetCommandValue(param string, v any) (string, bool)

	DataType(t model.Type, opts TypeOptions) (string, error)

	// AutoIncrementClause is the column constraint text for auto-increment;
	// empty when the data type itself implies it.
	AutoIncrementClause() string

	ReferenceAction(a expr.ReferenceAction) string

	// DefaultValuesClause completes an INSERT with no columns.
	DefaultValuesClause() string

	SupportsIndexIfNotExists() bool
	SupportsIncludedColumns() bool
	ClusteredIndexes() bool

	Amenders() []Amender
}

// ANSI is the base dialect. It quotes identifiers only when required and
// uses ? placeholders and OFFSET/FETCH paging.
type ANSI struct{}

var _ Dialect = ANSI{}

func (ANSI) Name() string { return "ansi" }

func (ANSI) QuoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func (ANSI) Placeholder(int) string { return "?" }

func (ANSI) Paging() Paging {
	return Paging{Style: PagingOffsetFetch, Combined: true}
}

func (ANSI) BooleanLiteral(v bool) (string, bool) {
	if v {
		return "TRUE", true
	}
	return "FALSE", true
}

func (ANSI) Returning() ReturningStyle { return ReturningNone }

func (ANSI) SetCommandKeyword(param string) string { return param }

func (ANSI) SetCommandValue(string, any) (string, bool) { return "", false }

func (ANSI) AutoIncrementClause() string { return "GENERATED BY DEFAULT AS IDENTITY" }

func (ANSI) DefaultValuesClause() string { return " DEFAULT VALUES" }

func (ANSI) SupportsIndexIfNotExists() bool { return false }
func (ANSI) SupportsIncludedColumns() bool  { return false }
func (ANSI) ClusteredIndexes() bool         { return false }

func (ANSI) Amenders() []Amender { return nil }

func (ANSI) ReferenceAction(a expr.ReferenceAction) string {
	switch a {
	case expr.ActionNoAction:
		return "NO ACTION"
	case expr.ActionRestrict:
		return "RESTRICT"
	case expr.ActionCascade:
		return "CASCADE"
	case expr.ActionSetNull:
		return "SET NULL"
	case expr.ActionSetDefault:
		return "SET DEFAULT"
	}
	return ""
}

func (ANSI) ResolveFunction(fc *expr.FunctionCall) (FunctionResolution, error) {
	args := fc.Args
	switch fc.Function {
	case expr.FuncIsNull:
		return FunctionResolution{Template: "{0} IS NULL", Args: args}, nil
	case expr.FuncIsNotNull:
		return FunctionResolution{Template: "{0} IS NOT NULL", Args: args}, nil
	case expr.FuncExists:
		return FunctionResolution{Template: "EXISTS {0}", Args: args}, nil
	case expr.FuncIn:
		return FunctionResolution{Template: "{0} IN {1}", Args: args}, nil
	case expr.FuncLike:
		return FunctionResolution{Template: "{0} LIKE {1}", Args: args}, nil
	case expr.FuncConcat:
		return FunctionResolution{Name: "||", TreatAsOperator: true, Args: args}, nil
	case expr.FuncUpper:
		return FunctionResolution{Name: "UPPER", Args: args}, nil
	case expr.FuncLower:
		return FunctionResolution{Name: "LOWER", Args: args}, nil
	case expr.FuncTrim:
		return FunctionResolution{Name: "TRIM", Args: args}, nil
	case expr.FuncLength:
		return FunctionResolution{Name: "CHAR_LENGTH", Args: args}, nil
	case expr.FuncSubstring:
		return FunctionResolution{Name: "SUBSTRING", Args: args}, nil
	case expr.FuncCoalesce:
		return FunctionResolution{Name: "COALESCE", Args: args}, nil
	case expr.FuncServerNow:
		return FunctionResolution{Name: "LOCALTIMESTAMP", ExcludeParens: true}, nil
	case expr.FuncServerUtcNow:
		return FunctionResolution{Name: "CURRENT_TIMESTAMP", ExcludeParens: true}, nil
	case expr.FuncDateTimeAddTimeSpan:
		return FunctionResolution{Template: "{0} + {1} * INTERVAL '1' SECOND", Args: args}, nil
	case expr.FuncYear:
		return FunctionResolution{Template: "EXTRACT(YEAR FROM {0})", Args: args}, nil
	case expr.FuncMonth:
		return FunctionResolution{Template: "EXTRACT(MONTH FROM {0})", Args: args}, nil
	case expr.FuncDay:
		return FunctionResolution{Template: "EXTRACT(DAY FROM {0})", Args: args}, nil
	case expr.FuncRowNumber:
		return FunctionResolution{Name: "ROW_NUMBER"}, nil
	}
	return FunctionResolution{}, fmt.Errorf("%w %s", ErrUnknownFunction, fc.Function)
}

func (ANSI) DataType(t model.Type, opts TypeOptions) (string, error) {
	switch t.Kind {
	case model.Bool:
		return "BOOLEAN", nil
	case model.Int8, model.Uint8, model.Int16:
		return "SMALLINT", nil
	case model.Uint16, model.Int32:
		return "INTEGER", nil
	case model.Uint32, model.Int64:
		return "BIGINT", nil
	case model.Uint64:
		return "NUMERIC(20)", nil
	case model.Float32:
		return "REAL", nil
	case model.Float64:
		return "DOUBLE PRECISION", nil
	case model.Decimal:
		return "DECIMAL(38, 9)", nil
	case model.String:
		return "VARCHAR(" + strconv.Itoa(LengthOr(opts.Length, 255)) + ")", nil
	case model.UUID:
		return "CHAR(36)", nil
	case model.Time:
		return "TIMESTAMP", nil
	}
	return "", fmt.Errorf("%w %s", ErrUnsupportedType, t)
}

// LengthOr returns n, or def when n is not positive.
func LengthOr(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
