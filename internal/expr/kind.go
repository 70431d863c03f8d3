package expr

import "fmt"

// Kind identifies the concrete node type.
type Kind int

const (
	KindConstant Kind = iota + 1
	KindParameter
	KindMemberAccess
	KindNew
	KindMemberInit
	KindBinary
	KindUnary
	KindConditional
	KindCall
	KindLambda

	KindTable
	KindColumn
	KindSelect
	KindProjection
	KindJoin
	KindOrderBy
	KindAggregate
	KindAggregateSubquery
	KindSubquery
	KindFunctionCall
	KindKeyword
	KindOver
	KindUnion
	KindObjectReference
	KindStatementList

	KindCreateTable
	KindColumnDefinition
	KindConstraint
	KindCreateIndex
	KindIndexedColumn
	KindInsertInto
	KindUpdate
	KindAssign
	KindDelete
	KindSetCommand
)

var kindNames = map[Kind]string{
	KindConstant:          "Constant",
	KindParameter:         "Parameter",
	KindMemberAccess:      "MemberAccess",
	KindNew:               "New",
	KindMemberInit:        "MemberInit",
	KindBinary:            "Binary",
	KindUnary:             "Unary",
	KindConditional:       "Conditional",
	KindCall:              "Call",
	KindLambda:            "Lambda",
	KindTable:             "Table",
	KindColumn:            "Column",
	KindSelect:            "Select",
	KindProjection:        "Projection",
	KindJoin:              "Join",
	KindOrderBy:           "OrderBy",
	KindAggregate:         "Aggregate",
	KindAggregateSubquery: "AggregateSubquery",
	KindSubquery:          "Subquery",
	KindFunctionCall:      "FunctionCall",
	KindKeyword:           "Keyword",
	KindOver:              "Over",
	KindUnion:             "Union",
	KindObjectReference:   "ObjectReference",
	KindStatementList:     "StatementList",
	KindCreateTable:       "CreateTable",
	KindColumnDefinition:  "ColumnDefinition",
	KindConstraint:        "Constraint",
	KindCreateIndex:       "CreateIndex",
	KindIndexedColumn:     "IndexedColumn",
	KindInsertInto:        "InsertInto",
	KindUpdate:            "Update",
	KindAssign:            "Assign",
	KindDelete:            "Delete",
	KindSetCommand:        "SetCommand",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsGeneric reports whether nodes of kind k must be eliminated before
// formatting. Binary, Unary, Conditional and Constant are shared with SQL and
// are not generic.
func (k Kind) IsGeneric() bool {
	switch k {
	case KindParameter, KindMemberAccess, KindNew, KindMemberInit, KindCall, KindLambda:
		return true
	}
	return false
}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	OpAdd BinaryOp = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpAnd // bitwise, or non-short-circuit logical on bool operands
	OpOr
	OpExclusiveOr
	OpAndAlso
	OpOrElse
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
)

var binaryOpNames = map[BinaryOp]string{
	OpAdd:                "Add",
	OpSubtract:           "Subtract",
	OpMultiply:           "Multiply",
	OpDivide:             "Divide",
	OpModulo:             "Modulo",
	OpAnd:                "And",
	OpOr:                 "Or",
	OpExclusiveOr:        "ExclusiveOr",
	OpAndAlso:            "AndAlso",
	OpOrElse:             "OrElse",
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpLessThan:           "LessThan",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// IsComparison reports whether op yields a boolean from two values.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanOrEqual
}

// IsArithmetic reports whether op is subject to numeric promotion.
func (op BinaryOp) IsArithmetic() bool {
	return op >= OpAdd && op <= OpModulo
}

// UnaryOp is the operator of a Unary node.
type UnaryOp int

const (
	OpNot UnaryOp = iota + 1
	OpNegate
	OpConvert
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "Not"
	case OpNegate:
		return "Negate"
	case OpConvert:
		return "Convert"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// JoinType selects the SQL join flavor.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	CrossJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	}
	return "INNER JOIN"
}

// AggregateType selects the SQL aggregate function.
type AggregateType int

const (
	AggCount AggregateType = iota + 1
	AggSum
	AggMin
	AggMax
	AggAverage
)

func (a AggregateType) String() string {
	switch a {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggAverage:
		return "AVG"
	}
	return fmt.Sprintf("AggregateType(%d)", int(a))
}

// Function identifies a portable SQL function. Dialects map each one to
// concrete syntax.
type Function int

const (
	FuncIsNull Function = iota + 1
	FuncIsNotNull
	FuncExists
	FuncIn
	FuncLike
	FuncStartsWith
	FuncEndsWith
	FuncContainsString
	FuncConcat
	FuncUpper
	FuncLower
	FuncTrim
	FuncLength
	FuncSubstring
	FuncCoalesce
	FuncServerNow
	FuncServerUtcNow
	FuncDateTimeAddTimeSpan
	FuncYear
	FuncMonth
	FuncDay
	FuncRowNumber
)

var functionNames = map[Function]string{
	FuncIsNull:              "IsNull",
	FuncIsNotNull:           "IsNotNull",
	FuncExists:              "Exists",
	FuncIn:                  "In",
	FuncLike:                "Like",
	FuncStartsWith:          "StartsWith",
	FuncEndsWith:            "EndsWith",
	FuncContainsString:      "ContainsString",
	FuncConcat:              "Concat",
	FuncUpper:               "Upper",
	FuncLower:               "Lower",
	FuncTrim:                "Trim",
	FuncLength:              "Length",
	FuncSubstring:           "Substring",
	FuncCoalesce:            "Coalesce",
	FuncServerNow:           "ServerNow",
	FuncServerUtcNow:        "ServerUtcNow",
	FuncDateTimeAddTimeSpan: "DateTimeAddTimeSpan",
	FuncYear:                "Year",
	FuncMonth:               "Month",
	FuncDay:                 "Day",
	FuncRowNumber:           "RowNumber",
}

func (f Function) String() string {
	if s, ok := functionNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Function(%d)", int(f))
}

// IsPredicate reports whether the function yields a SQL truth value rather
// than a scalar.
func (f Function) IsPredicate() bool {
	switch f {
	case FuncIsNull, FuncIsNotNull, FuncExists, FuncIn, FuncLike,
		FuncStartsWith, FuncEndsWith, FuncContainsString:
		return true
	}
	return false
}
