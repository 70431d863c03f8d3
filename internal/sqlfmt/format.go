package sqlfmt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/model"
	"github.com/roach88/objsql/internal/qerr"
)

var (
	// ErrCombinedPaging rejects a select carrying both Skip and Take in a
	// dialect that cannot express both at once.
	ErrCombinedPaging = errors.New("combined skip and take is not supported")

	// ErrUnamendedSkip rejects Skip left on a select in a TOP dialect; the
	// dialect's limit amender should have emulated it.
	ErrUnamendedSkip = errors.New("skip must be emulated before emission")

	// ErrIncludedColumns rejects INCLUDE columns on an index.
	ErrIncludedColumns = errors.New("index included columns are not supported")

	// ErrNoLiteral rejects inlining a value with no literal form.
	ErrNoLiteral = errors.New("no literal form for value")

	errNotReduced = errors.New("node must be reduced before formatting")
	errNoOperator = errors.New("no SQL operator")
)

// Options controls emission.
type Options struct {
	// InlineConstants writes constant values as literals instead of
	// positional parameters. DDL always inlines.
	InlineConstants bool
}

// Result is formatted SQL text and its positional parameters.
type Result struct {
	SQL    string
	Params []any
}

// Format pre-processes n with the dialect's amenders and renders it.
//
// Failures are *qerr.Error values: UNSUPPORTED_CONSTRUCT names the
// construct and dialect, CONTRACT_VIOLATION flags malformed trees. Partial
// SQL is never returned.
func Format(n expr.Node, d Dialect, opts Options) (*Result, error) {
	if n == nil {
		return nil, qerr.ContractViolation("Format", "nil tree")
	}
	pre, err := PreProcess(n, d)
	if err != nil {
		return nil, err
	}
	f := &formatter{d: d, opts: opts}
	if err := f.visit(pre); err != nil {
		return nil, err
	}
	return &Result{SQL: f.b.String(), Params: f.params}, nil
}

// PreProcess runs the dialect's amenders over n in order.
func PreProcess(n expr.Node, d Dialect) (expr.Node, error) {
	for _, a := range d.Amenders() {
		out, err := a.Apply(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		n = out
	}
	return n, nil
}

type formatter struct {
	d      Dialect
	opts   Options
	b      strings.Builder
	params []any

	// ddl is non-zero while inside a DDL statement; constants are inlined.
	ddl int
}

func (f *formatter) write(s string) { f.b.WriteString(s) }

func (f *formatter) ident(name string) {
	f.write(f.d.QuoteIdentifier(NormalizeIdentifier(name)))
}

func (f *formatter) idents(names []string) {
	for i, n := range names {
		if i > 0 {
			f.write(", ")
		}
		f.ident(n)
	}
}

func (f *formatter) unsupported(construct string, cause error) error {
	return qerr.UnsupportedIn(f.d.Name(), construct, cause)
}

func (f *formatter) list(ns []expr.Node, each func(expr.Node) error) error {
	for i, n := range ns {
		if i > 0 {
			f.write(", ")
		}
		if err := each(n); err != nil {
			return err
		}
	}
	return nil
}

func (f *formatter) parens(n expr.Node) error {
	f.write("(")
	if err := f.visit(n); err != nil {
		return err
	}
	f.write(")")
	return nil
}

// operand renders n where it binds to an operator: nested binaries,
// statements and comparison-form booleans are parenthesized.
func (f *formatter) operand(n expr.Node) error {
	switch x := n.(type) {
	case *expr.Binary, *expr.Select, *expr.Projection:
		return f.parens(n)
	case *expr.Constant:
		if b, ok := x.Value.(bool); ok {
			if _, lit := f.d.BooleanLiteral(b); !lit {
				return f.parens(n)
			}
		}
	}
	return f.visit(n)
}

// arg renders n in a comma-separated list.
func (f *formatter) arg(n expr.Node) error {
	switch n.(type) {
	case *expr.Select, *expr.Projection:
		return f.parens(n)
	}
	return f.visit(n)
}

func (f *formatter) visit(n expr.Node) error {
	switch x := n.(type) {
	case *expr.Constant:
		return f.constant(x)
	case *expr.Column:
		if x.Alias != "" {
			f.ident(x.Alias)
			f.write(".")
		}
		f.ident(x.Name)
		return nil
	case *expr.Table:
		f.ident(x.Name)
		if x.Alias != "" {
			f.write(" AS ")
			f.ident(x.Alias)
		}
		return nil
	case *expr.Binary:
		return f.binary(x)
	case *expr.Unary:
		return f.unary(x)
	case *expr.Conditional:
		return f.conditional(x)
	case *expr.FunctionCall:
		return f.function(x)
	case *expr.Aggregate:
		return f.aggregate(x)
	case *expr.Subquery:
		return f.parens(x.Select)
	case *expr.AggregateSubquery:
		return f.visit(x.AggregateAsSubquery)
	case *expr.Select:
		return f.selectStmt(x)
	case *expr.Projection:
		return f.selectStmt(x.Select)
	case *expr.Join:
		return f.join(x)
	case *expr.OrderBy:
		if err := f.visit(x.Expr); err != nil {
			return err
		}
		if x.Descending {
			f.write(" DESC")
		}
		return nil
	case *expr.Keyword:
		f.write(x.Text)
		return nil
	case *expr.Over:
		return f.over(x)
	case *expr.Union:
		if err := f.visit(x.Left); err != nil {
			return err
		}
		f.write(" UNION ")
		if x.All {
			f.write("ALL ")
		}
		return f.visit(x.Right)
	case *expr.StatementList:
		for _, s := range x.Statements {
			if err := f.visit(s); err != nil {
				return err
			}
			f.write(";\n")
		}
		return nil
	case *expr.CreateTable:
		return f.createTable(x)
	case *expr.CreateIndex:
		return f.createIndex(x)
	case *expr.InsertInto:
		return f.insert(x)
	case *expr.Update:
		return f.update(x)
	case *expr.Delete:
		f.write("DELETE FROM ")
		f.ident(x.Table.Name)
		return f.where(x.Where)
	case *expr.SetCommand:
		return f.setCommand(x)
	}
	return f.unsupported(n.Kind().String(), errNotReduced)
}

func (f *formatter) where(w expr.Node) error {
	if w == nil {
		return nil
	}
	f.write(" WHERE ")
	return f.visit(w)
}

func (f *formatter) constant(c *expr.Constant) error {
	if c.Value == nil {
		f.write("NULL")
		return nil
	}
	if b, ok := c.Value.(bool); ok {
		if lit, ok := f.d.BooleanLiteral(b); ok {
			f.write(lit)
		} else if b {
			f.write("1 = 1")
		} else {
			f.write("1 <> 1")
		}
		return nil
	}
	if rv := reflect.ValueOf(c.Value); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		f.write("(")
		for i := range rv.Len() {
			if i > 0 {
				f.write(", ")
			}
			if err := f.value(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		f.write(")")
		return nil
	}
	return f.value(c.Value)
}

func (f *formatter) value(v any) error {
	if v == nil {
		f.write("NULL")
		return nil
	}
	if f.opts.InlineConstants || f.ddl > 0 {
		lit, err := Literal(v)
		if err != nil {
			return f.unsupported("Constant", err)
		}
		f.write(lit)
		return nil
	}
	f.write(f.d.Placeholder(len(f.params)))
	f.params = append(f.params, v)
	return nil
}

// Literal renders v as an inline SQL literal.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return QuoteLiteral(x), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	case uuid.UUID:
		return QuoteLiteral(x.String()), nil
	case time.Time:
		return QuoteLiteral(x.UTC().Format("2006-01-02 15:04:05.999999")), nil
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'", nil
	}
	return "", fmt.Errorf("%w %T", ErrNoLiteral, v)
}

var binaryOperators = map[expr.BinaryOp]string{
	expr.OpAdd:                "+",
	expr.OpSubtract:           "-",
	expr.OpMultiply:           "*",
	expr.OpDivide:             "/",
	expr.OpModulo:             "%",
	expr.OpAnd:                "&",
	expr.OpOr:                 "|",
	expr.OpExclusiveOr:        "^",
	expr.OpAndAlso:            "AND",
	expr.OpOrElse:             "OR",
	expr.OpEqual:              "=",
	expr.OpNotEqual:           "<>",
	expr.OpLessThan:           "<",
	expr.OpLessThanOrEqual:    "<=",
	expr.OpGreaterThan:        ">",
	expr.OpGreaterThanOrEqual: ">=",
}

func isNullConstant(n expr.Node) bool {
	c, ok := n.(*expr.Constant)
	return ok && c.IsNull()
}

func (f *formatter) binary(b *expr.Binary) error {
	switch b.Op {
	case expr.OpEqual, expr.OpNotEqual:
		var subject expr.Node
		switch {
		case isNullConstant(b.Right):
			subject = b.Left
		case isNullConstant(b.Left):
			subject = b.Right
		}
		if subject != nil {
			if err := f.operand(subject); err != nil {
				return err
			}
			if b.Op == expr.OpEqual {
				f.write(" IS NULL")
			} else {
				f.write(" IS NOT NULL")
			}
			return nil
		}
	case expr.OpAdd:
		if b.T.Kind == model.String {
			return f.function(expr.Func(expr.FuncConcat, b.T, b.Left, b.Right))
		}
	}

	op, ok := binaryOperators[b.Op]
	if !ok {
		return f.unsupported(b.Op.String(), errNoOperator)
	}
	if b.Left.Type().Kind == model.Bool && b.Right.Type().Kind == model.Bool {
		switch b.Op {
		case expr.OpAnd:
			op = "AND"
		case expr.OpOr:
			op = "OR"
		case expr.OpExclusiveOr:
			op = "<>"
		}
	}
	if err := f.operand(b.Left); err != nil {
		return err
	}
	f.write(" " + op + " ")
	return f.operand(b.Right)
}

func (f *formatter) unary(u *expr.Unary) error {
	switch u.Op {
	case expr.OpNot:
		if u.Operand.Type().Kind == model.Bool {
			f.write("NOT ")
		} else {
			f.write("~")
		}
		return f.parens(u.Operand)
	case expr.OpNegate:
		f.write("-")
		return f.parens(u.Operand)
	case expr.OpConvert:
		if u.Operand.Type() == u.T {
			return f.visit(u.Operand)
		}
		dt, err := f.d.DataType(u.T, TypeOptions{})
		if err != nil {
			return f.unsupported("Convert", err)
		}
		f.write("CAST(")
		if err := f.visit(u.Operand); err != nil {
			return err
		}
		f.write(" AS " + dt + ")")
		return nil
	}
	return f.unsupported(u.Op.String(), errNoOperator)
}

func (f *formatter) conditional(c *expr.Conditional) error {
	f.write("CASE WHEN ")
	if err := f.visit(c.Test); err != nil {
		return err
	}
	f.write(" THEN ")
	if err := f.visit(c.IfTrue); err != nil {
		return err
	}
	f.write(" ELSE ")
	if err := f.visit(c.IfFalse); err != nil {
		return err
	}
	f.write(" END")
	return nil
}

// likePattern rewrites the string-match functions into LIKE over a
// concatenated pattern.
func likePattern(fc *expr.FunctionCall) (*expr.FunctionCall, error) {
	if len(fc.Args) != 2 {
		return nil, qerr.ContractViolation(fc.Function.String(), "expects 2 arguments, got %d", len(fc.Args))
	}
	wild := &expr.Keyword{Text: "'%'"}
	x, p := fc.Args[0], fc.Args[1]
	var pattern *expr.FunctionCall
	switch fc.Function {
	case expr.FuncStartsWith:
		pattern = expr.Func(expr.FuncConcat, model.StringType, p, wild)
	case expr.FuncEndsWith:
		pattern = expr.Func(expr.FuncConcat, model.StringType, wild, p)
	default:
		pattern = expr.Func(expr.FuncConcat, model.StringType, wild, p, wild)
	}
	return expr.Func(expr.FuncLike, model.BoolType, x, pattern), nil
}

func (f *formatter) function(fc *expr.FunctionCall) error {
	switch fc.Function {
	case expr.FuncStartsWith, expr.FuncEndsWith, expr.FuncContainsString:
		like, err := likePattern(fc)
		if err != nil {
			return err
		}
		return f.function(like)
	}

	res, err := f.d.ResolveFunction(fc)
	if err != nil {
		if qerr.CodeOf(err) != "" {
			return err
		}
		return f.unsupported(fc.Function.String(), err)
	}
	switch {
	case res.Template != "":
		return f.template(fc.Function, res.Template, res.Args)
	case res.TreatAsOperator:
		for i, a := range res.Args {
			if i > 0 {
				f.write(" " + res.Name + " ")
			}
			if err := f.operand(a); err != nil {
				return err
			}
		}
		return nil
	case res.ExcludeParens:
		f.write(res.Name)
		return nil
	}
	f.write(res.Name + "(")
	if err := f.list(res.Args, f.arg); err != nil {
		return err
	}
	f.write(")")
	return nil
}

func (f *formatter) template(fn expr.Function, tmpl string, args []expr.Node) error {
	for i := 0; i < len(tmpl); {
		if tmpl[i] == '{' {
			if j := strings.IndexByte(tmpl[i:], '}'); j > 1 {
				if k, err := strconv.Atoi(tmpl[i+1 : i+j]); err == nil {
					if k >= len(args) {
						return qerr.ContractViolation(fn.String(), "missing argument %d", k)
					}
					if err := f.operand(args[k]); err != nil {
						return err
					}
					i += j + 1
					continue
				}
			}
		}
		f.b.WriteByte(tmpl[i])
		i++
	}
	return nil
}

func (f *formatter) aggregate(a *expr.Aggregate) error {
	f.write(a.AggregateType.String() + "(")
	if a.Distinct {
		f.write("DISTINCT ")
	}
	if a.Arg == nil {
		f.write("*")
	} else if err := f.visit(a.Arg); err != nil {
		return err
	}
	f.write(")")
	return nil
}

func (f *formatter) over(o *expr.Over) error {
	if err := f.visit(o.Source); err != nil {
		return err
	}
	f.write(" OVER (")
	if len(o.OrderBy) > 0 {
		f.write("ORDER BY ")
		for i, ob := range o.OrderBy {
			if i > 0 {
				f.write(", ")
			}
			if err := f.visit(ob); err != nil {
				return err
			}
		}
	}
	f.write(")")
	return nil
}

func (f *formatter) selectStmt(s *expr.Select) error {
	paging := f.d.Paging()
	if s.Skip != nil && s.Take != nil && !paging.Combined {
		return f.unsupported("Skip/Take", ErrCombinedPaging)
	}
	if s.Skip != nil && paging.Style == PagingTop {
		return f.unsupported("Skip", ErrUnamendedSkip)
	}

	f.write("SELECT ")
	if s.Distinct {
		f.write("DISTINCT ")
	}
	if s.Take != nil && paging.Style == PagingTop {
		if err := f.write2("TOP(", s.Take, ") "); err != nil {
			return err
		}
	}
	if len(s.Columns) == 0 {
		f.write("*")
	}
	for i, c := range s.Columns {
		if i > 0 {
			f.write(", ")
		}
		if err := f.arg(c.Expr); err != nil {
			return err
		}
		if col, ok := c.Expr.(*expr.Column); !ok || col.Name != c.Name {
			f.write(" AS ")
			f.ident(c.Name)
		}
	}
	if s.From != nil {
		f.write(" FROM ")
		if err := f.source(s.From); err != nil {
			return err
		}
	}
	if err := f.where(s.Where); err != nil {
		return err
	}
	if len(s.GroupBy) > 0 {
		f.write(" GROUP BY ")
		if err := f.list(s.GroupBy, f.visit); err != nil {
			return err
		}
	}
	if len(s.OrderBy) > 0 {
		f.write(" ORDER BY ")
		for i, ob := range s.OrderBy {
			if i > 0 {
				f.write(", ")
			}
			if err := f.visit(ob); err != nil {
				return err
			}
		}
	}

	switch paging.Style {
	case PagingLimitOffset:
		if s.Take != nil {
			if err := f.write2(" LIMIT ", s.Take, ""); err != nil {
				return err
			}
		} else if s.Skip != nil && paging.UnboundedLimit != "" {
			f.write(" LIMIT " + paging.UnboundedLimit)
		}
		if s.Skip != nil {
			return f.write2(" OFFSET ", s.Skip, "")
		}
	case PagingOffsetFetch:
		if s.Skip == nil && s.Take == nil {
			return nil
		}
		f.write(" OFFSET ")
		if s.Skip == nil {
			f.write("0")
		} else if err := f.visit(s.Skip); err != nil {
			return err
		}
		f.write(" ROWS")
		if s.Take != nil {
			return f.write2(" FETCH NEXT ", s.Take, " ROWS ONLY")
		}
	}
	return nil
}

// write2 writes before, n, after.
func (f *formatter) write2(before string, n expr.Node, after string) error {
	f.write(before)
	if err := f.visit(n); err != nil {
		return err
	}
	f.write(after)
	return nil
}

func (f *formatter) source(n expr.Node) error {
	var s *expr.Select
	switch x := n.(type) {
	case *expr.Select:
		s = x
	case *expr.Projection:
		s = x.Select
	default:
		return f.visit(n)
	}
	if err := f.parens(s); err != nil {
		return err
	}
	if s.Alias != "" {
		f.write(" AS ")
		f.ident(s.Alias)
	}
	return nil
}

func (f *formatter) join(j *expr.Join) error {
	if err := f.source(j.Left); err != nil {
		return err
	}
	f.write(" " + j.JoinType.String() + " ")
	if err := f.source(j.Right); err != nil {
		return err
	}
	if j.On != nil && j.JoinType != expr.CrossJoin {
		return f.write2(" ON ", j.On, "")
	}
	return nil
}
