package schema

// UndefinedPolicy controls what happens when an unknown key is assigned to
// an instance. The Inherited variants propagate through Extends; the plain
// variants apply to the declaring schema only, mirroring the distinction
// between a per-class opt-in and an inheritable declaration.
type UndefinedPolicy int

const (
	// UndefinedUnset defers to the inherited policy, or denies.
	UndefinedUnset UndefinedPolicy = iota
	// UndefinedDeny rejects unknown keys on this schema only.
	UndefinedDeny
	// UndefinedAllow accepts unknown keys on this schema only.
	UndefinedAllow
	// UndefinedDenyInherited rejects unknown keys here and in descendants.
	UndefinedDenyInherited
	// UndefinedAllowInherited accepts unknown keys here and in descendants.
	UndefinedAllowInherited
)

func (p UndefinedPolicy) inherited() bool {
	return p == UndefinedDenyInherited || p == UndefinedAllowInherited
}

func (p UndefinedPolicy) allows() bool {
	return p == UndefinedAllow || p == UndefinedAllowInherited
}

// Definition is the declarative input to Compile. It replaces metadata
// introspection with an explicit field list; inheritance is explicit
// schema composition through Extends.
type Definition struct {
	// Name identifies the schema; the compile cache is keyed by it.
	Name string

	// Extends lists base schemas in resolution order. The first occurrence
	// of a field wins its position; later declarations (including the
	// local Fields list) override the descriptor in place.
	Extends []*Schema

	// Fields declared locally.
	Fields []*Field

	// Consts are per-schema constants visible to checkers through
	// Schema.Const. A derived definition overrides them per key, which is
	// what lets an inherited checker observe derived values.
	Consts map[string]any

	// FieldCheckers and RootCheckers run in declaration order after the
	// inherited checker lists.
	FieldCheckers []FieldChecker
	RootCheckers  []RootChecker

	// Undefined is the unknown-key policy.
	Undefined UndefinedPolicy
}

// Schema is the compiled, immutable form of a Definition. It is built at
// most once per definition name and never mutated afterwards.
type Schema struct {
	name            string
	fields          map[string]*Field
	order           []string
	fieldCheckers   []FieldChecker
	rootCheckers    []RootChecker
	consts          map[string]any
	allowUndefined  bool
	inheritedPolicy UndefinedPolicy
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared field names in schema order.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Field looks up a field descriptor by name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// AllowsUndefined reports whether unknown keys may be assigned.
func (s *Schema) AllowsUndefined() bool { return s.allowUndefined }

// Const returns a schema constant, looking through the inheritance chain
// as flattened at compile time. Checkers bound to a base definition read
// constants through the derived schema they were re-bound to.
func (s *Schema) Const(name string) (any, bool) {
	v, ok := s.consts[name]
	return v, ok
}

// ConstInt is a convenience accessor for integer constants; missing or
// non-integer constants return 0.
func (s *Schema) ConstInt(name string) int {
	v, ok := s.consts[name]
	if !ok {
		return 0
	}
	i, ok := coerceInt(v)
	if !ok {
		return 0
	}
	return i.(int)
}

// Type returns the Object type descriptor for this schema.
func (s *Schema) Type() Type { return Object(s) }

func compileDefinition(def Definition) (*Schema, error) {
	if def.Name == "" {
		return nil, definitionErrorf("", "schema name must not be empty")
	}

	s := &Schema{
		name:   def.Name,
		fields: map[string]*Field{},
		consts: map[string]any{},
	}

	// Union inherited field maps: first occurrence wins position, later
	// bases and the local list override the descriptor in place.
	addField := func(f *Field) {
		if _, seen := s.fields[f.name]; !seen {
			s.order = append(s.order, f.name)
		}
		s.fields[f.name] = f
	}

	inheritedPolicy := UndefinedUnset
	conflictingPolicies := false

	for _, base := range def.Extends {
		if base == nil {
			return nil, definitionErrorf(def.Name, "nil base schema in Extends")
		}
		for _, name := range base.order {
			addField(base.fields[name])
		}
		for k, v := range base.consts {
			if _, seen := s.consts[k]; !seen {
				s.consts[k] = v
			}
		}
		for _, fc := range base.fieldCheckers {
			if fieldCheckerIndex(s.fieldCheckers, fc.Name) < 0 {
				s.fieldCheckers = append(s.fieldCheckers, fc)
			}
		}
		for _, rc := range base.rootCheckers {
			if rootCheckerIndex(s.rootCheckers, rc.Name) < 0 {
				s.rootCheckers = append(s.rootCheckers, rc)
			}
		}
		if base.inheritedPolicy != UndefinedUnset {
			if inheritedPolicy != UndefinedUnset && inheritedPolicy != base.inheritedPolicy {
				conflictingPolicies = true
			}
			inheritedPolicy = base.inheritedPolicy
		}
	}

	// Conflicting inherited policies are only fatal when the definition
	// does not settle the question itself.
	if conflictingPolicies && def.Undefined == UndefinedUnset {
		return nil, definitionErrorf(def.Name,
			"base schemas declare conflicting undefined-field policies")
	}

	// Derived consts override base consts per key.
	for k, v := range def.Consts {
		s.consts[k] = v
	}

	for _, f := range def.Fields {
		if f == nil {
			return nil, definitionErrorf(def.Name, "nil field in Fields")
		}
		if err := f.validate(def.Name); err != nil {
			return nil, err
		}
		addField(f.normalized())
	}

	// A local checker reusing an inherited name replaces it at the
	// inherited position, so a subclass can tighten or relax a base check
	// without running both.
	for _, fc := range def.FieldCheckers {
		if fc.Name == "" || fc.Check == nil {
			return nil, definitionErrorf(def.Name, "field checker needs a name and a function")
		}
		if len(fc.Fields) == 0 {
			return nil, definitionErrorf(def.Name, "field checker %q targets no fields", fc.Name)
		}
		if i := fieldCheckerIndex(s.fieldCheckers, fc.Name); i >= 0 {
			s.fieldCheckers[i] = fc
			continue
		}
		s.fieldCheckers = append(s.fieldCheckers, fc)
	}
	for _, rc := range def.RootCheckers {
		if rc.Name == "" || rc.Check == nil {
			return nil, definitionErrorf(def.Name, "root checker needs a name and a function")
		}
		if i := rootCheckerIndex(s.rootCheckers, rc.Name); i >= 0 {
			s.rootCheckers[i] = rc
			continue
		}
		s.rootCheckers = append(s.rootCheckers, rc)
	}

	// Resolve the unknown-key policy: a local setting wins, otherwise the
	// policy inherited from the bases applies, otherwise deny.
	switch {
	case def.Undefined != UndefinedUnset:
		s.allowUndefined = def.Undefined.allows()
		switch {
		case def.Undefined.inherited():
			s.inheritedPolicy = def.Undefined
		case conflictingPolicies:
			// The local policy resolved the clash but is not itself
			// inherited, so nothing ambiguous may propagate further.
			s.inheritedPolicy = UndefinedUnset
		default:
			// A plain opt-in is not inherited; descendants fall back to
			// whatever the bases propagate.
			s.inheritedPolicy = inheritedPolicy
		}
	case inheritedPolicy != UndefinedUnset:
		s.allowUndefined = inheritedPolicy.allows()
		s.inheritedPolicy = inheritedPolicy
	default:
		s.allowUndefined = false
	}

	return s, nil
}

func fieldCheckerIndex(list []FieldChecker, name string) int {
	for i, c := range list {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func rootCheckerIndex(list []RootChecker, name string) int {
	for i, c := range list {
		if c.Name == name {
			return i
		}
	}
	return -1
}
