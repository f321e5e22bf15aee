package schema

// Values is the read surface checkers use to inspect sibling fields.
// Pre checkers observe the raw, not-yet-coerced input; post checkers
// observe the assembled Config instance.
type Values interface {
	Get(key string) (any, bool)
}

// mapValues adapts a raw mapping for pre checkers.
type mapValues map[string]any

func (m mapValues) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Wildcard targets every declared field of the schema.
const Wildcard = "*"

// FieldCheckerFunc validates (and may rewrite) one field value. The schema
// argument is always the most-derived schema under validation, so constants
// read through it observe subclass overrides.
type FieldCheckerFunc func(s *Schema, v any, values Values, field string) (any, error)

// RootCheckerFunc validates the whole object.
type RootCheckerFunc func(s *Schema, values Values) error

// FieldChecker binds a checker function to one or more field names, or to
// the Wildcard. Checkers are identified by name: a subclass declaring a
// checker under an inherited name replaces the inherited one in place.
type FieldChecker struct {
	Name   string
	Fields []string
	Pre    bool
	Check  FieldCheckerFunc
}

// RootChecker binds a checker function to the whole object.
type RootChecker struct {
	Name  string
	Pre   bool
	Check RootCheckerFunc
}
