package schema

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Schema error codes (E200-E299)
const (
	ErrCodeCUE              = "E200" // CUE load, build or unification failure
	ErrCodeNoEntities       = "E201" // no entity definitions found
	ErrCodeUnknownKind      = "E202" // property type is not a scalar kind
	ErrCodeUnknownEntity    = "E203" // ref or extends names no entity
	ErrCodePropertyType     = "E204" // property needs exactly one of type and ref
	ErrCodeExtendsCycle     = "E205" // base chain loops back
	ErrCodeDuplicateTable   = "E206" // two entities share a table name
	ErrCodeDuplicateMember  = "E207" // property redeclares an inherited one
	ErrCodeUnknownIndexProp = "E208" // index names a missing property
	ErrCodeNoKey            = "E209" // referenced entity has no primary key
	ErrCodeNoProperties     = "E210" // entity declares no properties
)

// CompileError represents a schema error with source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: [%s] %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func newError(code, field string, pos token.Pos, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error; CUE tends to cascade.
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrCodeCUE,
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Code: ErrCodeCUE, Field: "cue", Message: first.Error()}
}
