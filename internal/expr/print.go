package expr

import (
	"fmt"
	"strings"
)

// Sprint renders n as a compact S-expression for logs and test failures.
func Sprint(n Node) string {
	var b strings.Builder
	sprint(&b, n)
	return b.String()
}

func sprint(b *strings.Builder, n Node) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Kind().String())
	if a := attrs(n); a != "" {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	for _, c := range n.Children() {
		b.WriteByte(' ')
		sprint(b, c)
	}
	b.WriteByte(')')
}

func attrs(n Node) string {
	switch x := n.(type) {
	case *Constant:
		if x.Value == nil {
			return "null"
		}
		if s, ok := x.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(x.Value)
	case *Parameter:
		return x.Name
	case *MemberAccess:
		return "." + x.Name
	case *New:
		return x.T.String()
	case *MemberInit:
		names := make([]string, len(x.Bindings))
		for i, bd := range x.Bindings {
			names[i] = bd.Name
		}
		return "{" + strings.Join(names, ",") + "}"
	case *Binary:
		return x.Op.String()
	case *Unary:
		if x.Op == OpConvert {
			return "Convert:" + x.T.String()
		}
		return x.Op.String()
	case *Call:
		return x.Method
	case *Table:
		return strings.TrimSpace(x.Name + " " + x.Alias)
	case *Column:
		if x.Alias == "" {
			return x.Name
		}
		return x.Alias + "." + x.Name
	case *Select:
		return x.Alias
	case *Join:
		return x.JoinType.String()
	case *OrderBy:
		if x.Descending {
			return "desc"
		}
		return "asc"
	case *Aggregate:
		return x.AggregateType.String()
	case *AggregateSubquery:
		return x.GroupByAlias
	case *FunctionCall:
		return x.Function.String()
	case *Keyword:
		return x.Text
	case *ObjectReference:
		return x.T.String()
	case *ColumnDefinition:
		return x.Name
	case *Constraint:
		return x.ConstraintType.String()
	case *CreateIndex:
		return x.Name
	case *SetCommand:
		return x.Parameter
	}
	return ""
}
