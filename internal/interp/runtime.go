package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/objsql/internal/model"
)

// ErrNoMember is returned by a Runtime when an object has no such member or
// method.
var ErrNoMember = errors.New("no such member")

// Runtime is the object capability the evaluators use for construction,
// member access and method calls. Evaluation never reflects over values.
type Runtime interface {
	New(t model.Type, args []any) (any, error)
	Member(obj any, name string) (any, error)
	SetMember(obj any, name string, value any) error

	// Invoke calls method on obj (nil for static methods). A failure raised
	// by the method itself is returned as *InvocationError.
	Invoke(obj any, method string, args []any) (any, error)
}

// InvocationError wraps a failure raised inside an invoked method. The
// evaluators unwrap it and return Err unchanged.
type InvocationError struct {
	Method string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Record is the value RecordRuntime constructs.
type Record struct {
	Type   model.Type
	Fields map[string]any
}

// Method implements a named method for RecordRuntime. recv is nil for
// static methods.
type Method func(recv any, args []any) (any, error)

// RecordRuntime is the default Runtime. Objects are *Record or
// map[string]any; methods come from a registry seeded with string helpers.
type RecordRuntime struct {
	methods map[string]Method
}

// NewRecordRuntime returns a runtime with the built-in methods registered.
func NewRecordRuntime() *RecordRuntime {
	rt := &RecordRuntime{methods: make(map[string]Method)}
	rt.Register("ToUpper", stringMethod(strings.ToUpper))
	rt.Register("ToLower", stringMethod(strings.ToLower))
	rt.Register("Trim", stringMethod(strings.TrimSpace))
	rt.Register("Concat", func(_ any, args []any) (any, error) {
		var b strings.Builder
		for _, a := range args {
			if a != nil {
				fmt.Fprint(&b, a)
			}
		}
		return b.String(), nil
	})
	return rt
}

func stringMethod(fn func(string) string) Method {
	return func(recv any, _ []any) (any, error) {
		s, ok := recv.(string)
		if !ok {
			return nil, fmt.Errorf("receiver is %T, not string", recv)
		}
		return fn(s), nil
	}
}

// Register adds or replaces a method.
func (rt *RecordRuntime) Register(name string, m Method) {
	rt.methods[name] = m
}

// New builds a *Record. Positional arguments bind to the entity's
// properties in AllProperties order; for non-entity types they are stored
// as Item1, Item2, ...
func (rt *RecordRuntime) New(t model.Type, args []any) (any, error) {
	rec := &Record{Type: t, Fields: make(map[string]any, len(args))}
	if t.IsEntity() {
		props := t.Entity.AllProperties()
		if len(args) > len(props) {
			return nil, fmt.Errorf("new %s: %d arguments for %d properties", t, len(args), len(props))
		}
		for i, a := range args {
			rec.Fields[props[i].Name] = a
		}
		return rec, nil
	}
	for i, a := range args {
		rec.Fields[fmt.Sprintf("Item%d", i+1)] = a
	}
	return rec, nil
}

func (rt *RecordRuntime) Member(obj any, name string) (any, error) {
	switch o := obj.(type) {
	case *Record:
		if v, ok := o.Fields[name]; ok {
			return v, nil
		}
		if o.Type.IsEntity() {
			if _, ok := o.Type.Entity.Property(name); ok {
				return nil, nil
			}
		}
	case map[string]any:
		if v, ok := o[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %T.%s", ErrNoMember, obj, name)
}

func (rt *RecordRuntime) SetMember(obj any, name string, value any) error {
	switch o := obj.(type) {
	case *Record:
		o.Fields[name] = value
		return nil
	case map[string]any:
		o[name] = value
		return nil
	}
	return fmt.Errorf("%w: %T.%s", ErrNoMember, obj, name)
}

// Invoke runs a registered method. A panic inside the method is reported as
// an *InvocationError like any other method failure.
func (rt *RecordRuntime) Invoke(obj any, method string, args []any) (v any, err error) {
	m, ok := rt.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: method %s", ErrNoMember, method)
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, &InvocationError{Method: method, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err = m(obj, args)
	if err != nil {
		return nil, &InvocationError{Method: method, Err: err}
	}
	return v, nil
}
