// Package interp evaluates closed expression subtrees on the client.
//
// Evaluation runs in two tiers. Interpret walks the tree directly and
// handles the common shapes without any setup cost. When it reports
// ErrInterpretFailed, Compile builds a closure Program that accepts a
// superset of constructs. Both tiers share the value helpers in values.go.
//
// Objects are created, read and written through a Runtime so the
// evaluators never reflect over caller types.
package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/qerr"
)

// Evaluator evaluates closed subtrees, trying the interpreter first.
type Evaluator struct {
	Runtime Runtime

	// SkipInterpreter forces every evaluation through Compile.
	SkipInterpreter bool
}

// NewEvaluator returns an evaluator over rt.
func NewEvaluator(rt Runtime) *Evaluator {
	return &Evaluator{Runtime: rt}
}

// Evaluate returns the value of n. Failures are *qerr.Error with code
// EVALUATION_FAILURE or UNSUPPORTED_CONSTRUCT, except failures raised inside
// an invoked method, which are returned unchanged.
func (e *Evaluator) Evaluate(n expr.Node) (any, error) {
	if !e.SkipInterpreter {
		v, err := Interpret(n, e.Runtime)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrInterpretFailed) {
			return nil, err
		}
	}
	prog, err := Compile(n, e.Runtime)
	if err != nil {
		return nil, err
	}
	return run(n, prog)
}

// run executes prog. A panic escaping the Runtime becomes an evaluation
// failure.
func run(n expr.Node, prog Program) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, qerr.EvaluationFailure(fmt.Errorf("panic: %v", r), "evaluate %s", n.Kind())
		}
	}()
	return prog(nil)
}
