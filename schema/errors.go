package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaDefinition wraps failures raised while compiling a Definition.
	ErrSchemaDefinition = errors.New("schema: invalid definition")
	// ErrTypeCheck wraps coercion, choices, and checker failures.
	ErrTypeCheck = errors.New("schema: type check failed")
	// ErrUndefinedField indicates an assignment of an unknown key under a
	// non-permissive schema.
	ErrUndefinedField = errors.New("schema: undefined field")
)

// DefinitionError describes a malformed Definition. It is returned by
// Compile and is never recoverable.
type DefinitionError struct {
	Schema string
	Msg    string
}

func (e *DefinitionError) Error() string {
	if e.Schema == "" {
		return "invalid schema definition: " + e.Msg
	}
	return fmt.Sprintf("invalid definition for schema %q: %s", e.Schema, e.Msg)
}

func (e *DefinitionError) Is(target error) bool {
	return target == ErrSchemaDefinition
}

func definitionErrorf(schema, format string, args ...any) *DefinitionError {
	return &DefinitionError{Schema: schema, Msg: fmt.Sprintf(format, args...)}
}

// CheckError is the error produced by the coercion engine. Path holds the
// dotted location at which the failure occurred; Causes carries the
// underlying errors, one per failed Union alternative or one per failed
// checker.
type CheckError struct {
	Path   string
	Msg    string
	Causes []error
}

func (e *CheckError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString("at ")
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Msg)
	if len(e.Causes) > 0 {
		sb.WriteString("\ncaused by:")
		for _, cause := range e.Causes {
			sb.WriteString("\n* ")
			sb.WriteString(cause.Error())
		}
	}
	return sb.String()
}

func (e *CheckError) Is(target error) bool {
	return target == ErrTypeCheck
}

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *CheckError) Unwrap() []error {
	return e.Causes
}

// checkErrorAt builds a CheckError located at the context's current path.
func checkErrorAt(ctx *Context, format string, args ...any) *CheckError {
	return &CheckError{Path: ctx.Path(), Msg: fmt.Sprintf(format, args...)}
}

// wrapCheckerError re-tags a checker failure with the current path. Errors
// that are already CheckErrors keep their original location.
func wrapCheckerError(ctx *Context, err error) error {
	var ce *CheckError
	if errors.As(err, &ce) {
		return err
	}
	return &CheckError{Path: ctx.Path(), Msg: "check failed", Causes: []error{err}}
}

// UndefinedFieldError is raised at the point an unknown key is assigned to
// an instance whose schema does not allow undefined fields.
type UndefinedFieldError struct {
	Schema string
	Field  string
}

func (e *UndefinedFieldError) Error() string {
	return fmt.Sprintf("field %q is not defined for schema: %s", e.Field, e.Schema)
}

func (e *UndefinedFieldError) Is(target error) bool {
	return target == ErrUndefinedField
}
