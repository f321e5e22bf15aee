package schema

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Field declares a single schema field. Fields are built fluently and
// become immutable once their Definition is compiled:
//
//	schema.NewField("batch_size", schema.Int()).
//		WithDefault(64).
//		WithDescription("samples per training step")
type Field struct {
	name           string
	typ            Type
	description    string
	def            any
	hasDefault     bool
	factory        func() any
	choices        []any
	required       bool
	envVar         string
	ignoreEmptyEnv bool
}

// NewField declares a field. A nil type is inferred at compile time from
// the declared default value, or resolves to any.
func NewField(name string, typ Type) *Field {
	return &Field{
		name:           name,
		typ:            typ,
		required:       true,
		ignoreEmptyEnv: true,
	}
}

// WithDefault sets the literal default value. Mutable defaults are deep
// copied on materialization, so instances never share them.
func (f *Field) WithDefault(v any) *Field {
	f.def = v
	f.hasDefault = true
	return f
}

// WithFactory sets a default factory invoked once per materialization.
// A field cannot carry both a default and a factory.
func (f *Field) WithFactory(factory func() any) *Field {
	f.factory = factory
	return f
}

// WithDescription attaches the help text used by the CLI surface.
func (f *Field) WithDescription(description string) *Field {
	f.description = description
	return f
}

// WithChoices restricts the coerced value to the given set.
func (f *Field) WithChoices(choices ...any) *Field {
	f.choices = append([]any{}, choices...)
	return f
}

// NotRequired lets validation pass when the field has no value.
func (f *Field) NotRequired() *Field {
	f.required = false
	return f
}

// WithEnvVar binds the field to an environment variable consulted when no
// explicit value was supplied. Empty values are treated as absent unless
// KeepEmptyEnv is also set.
func (f *Field) WithEnvVar(name string) *Field {
	f.envVar = name
	return f
}

// KeepEmptyEnv makes an empty environment value count as an explicit
// empty string instead of being ignored.
func (f *Field) KeepEmptyEnv() *Field {
	f.ignoreEmptyEnv = false
	return f
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Type returns the field's type descriptor.
func (f *Field) Type() Type { return f.typ }

// Description returns the field's help text.
func (f *Field) Description() string { return f.description }

// Choices returns the declared choice set, nil when unrestricted.
func (f *Field) Choices() []any { return f.choices }

// Required reports whether validation fails when the field is absent.
// A field with a default or a factory is never required.
func (f *Field) Required() bool {
	return f.required && !f.hasDefault && f.factory == nil
}

// EnvVar returns the bound environment variable name, if any.
func (f *Field) EnvVar() string { return f.envVar }

// Default materializes the default value. The second return value is
// false when the field declares neither a default nor a factory.
func (f *Field) Default() (any, bool) {
	if f.factory != nil {
		return f.factory(), true
	}
	if !f.hasDefault {
		return nil, false
	}
	cloned, err := copystructure.Copy(f.def)
	if err != nil {
		// Defaults are plain literals or trees of them; Copy only fails
		// on values it cannot traverse, which we treat as shared.
		return f.def, true
	}
	return cloned, true
}

// HasDefault reports whether a default or factory is declared.
func (f *Field) HasDefault() bool {
	return f.hasDefault || f.factory != nil
}

func (f *Field) validate(schemaName string) error {
	if f.name == "" {
		return definitionErrorf(schemaName, "field with empty name")
	}
	if f.hasDefault && f.factory != nil {
		return definitionErrorf(schemaName,
			"field %q declares both a default and a default factory", f.name)
	}
	return nil
}

// normalized returns a copy of the field with compile-time adjustments
// applied: type inference from the default, the implicit nil default for
// Optional fields, and the implicit instance factory for object fields.
func (f *Field) normalized() *Field {
	out := *f
	if out.typ == nil {
		if def, ok := f.Default(); ok {
			out.typ = InferType(def)
		} else {
			out.typ = Any()
		}
	}
	if !out.hasDefault && out.factory == nil {
		switch t := out.typ.(type) {
		case optionalType:
			out.def = nil
			out.hasDefault = true
		case objectType:
			nested := t.schema
			out.factory = func() any { return nested.New() }
		}
	}
	return &out
}

func (f *Field) String() string {
	return fmt.Sprintf("Field(%s: %s)", f.name, f.typ)
}
