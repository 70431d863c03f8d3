// Package qerr defines the error kinds surfaced by query compilation.
//
// Every failure leaving the compiler is an *Error carrying one of three
// codes. Callers branch with the Is* predicates, which see through
// fmt.Errorf wrapping.
package qerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes compilation failures.
type Code string

const (
	// CodeUnsupportedConstruct: the tree contains a node, operator or
	// function the pass or dialect cannot express.
	CodeUnsupportedConstruct Code = "UNSUPPORTED_CONSTRUCT"

	// CodeEvaluationFailure: a client-side subtree could not be evaluated.
	CodeEvaluationFailure Code = "EVALUATION_FAILURE"

	// CodeContractViolation: the input broke a structural precondition,
	// e.g. an Include outside projection mode or mismatched key arity.
	CodeContractViolation Code = "CONTRACT_VIOLATION"
)

// Error is the structured compilation error.
type Error struct {
	Code Code

	// Dialect names the target dialect, empty for dialect-independent passes.
	Dialect string

	// Construct names what was rejected: an operator, a function, a node kind.
	Construct string

	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Dialect != "" {
		b.WriteString(" [")
		b.WriteString(e.Dialect)
		b.WriteString("]")
	}
	if e.Construct != "" {
		b.WriteString(" ")
		b.WriteString(e.Construct)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unsupported reports a construct no pass can express.
func Unsupported(construct, format string, args ...any) *Error {
	return &Error{Code: CodeUnsupportedConstruct, Construct: construct, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedIn reports a construct the named dialect cannot express.
func UnsupportedIn(dialect, construct string, cause error) *Error {
	return &Error{Code: CodeUnsupportedConstruct, Dialect: dialect, Construct: construct, Err: cause}
}

// ContractViolation reports a broken structural precondition.
func ContractViolation(construct, format string, args ...any) *Error {
	return &Error{Code: CodeContractViolation, Construct: construct, Message: fmt.Sprintf(format, args...)}
}

// EvaluationFailure wraps the error raised while evaluating a subtree.
func EvaluationFailure(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeEvaluationFailure, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnsupported reports whether err is an unsupported-construct error.
func IsUnsupported(err error) bool {
	return CodeOf(err) == CodeUnsupportedConstruct
}

// IsEvaluationFailure reports whether err is an evaluation failure.
func IsEvaluationFailure(err error) bool {
	return CodeOf(err) == CodeEvaluationFailure
}

// IsContractViolation reports whether err is a contract violation.
func IsContractViolation(err error) bool {
	return CodeOf(err) == CodeContractViolation
}
