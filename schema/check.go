package schema

import (
	"fmt"
	"os"
	"reflect"
)

// Validate runs raw input through the schema's checker pipeline and
// coercion engine, producing a fully validated instance or a CheckError
// qualified with the dotted path of the failure.
//
// The stage order is load-bearing and deliberately asymmetric:
//
//	root-pre -> field-pre -> per-field coercion -> root-post -> field-post
//
// Root-post observes the fully assembled, type-correct object but runs
// before the per-field post checks, so a root invariant can short-circuit
// narrow per-field validation.
func (s *Schema) Validate(v any, opts ...ContextOption) (*Config, error) {
	out, err := s.check(v, NewContext(opts...))
	if err != nil {
		return nil, err
	}
	return out.(*Config), nil
}

// rawInput is the normalized form of mapping-shaped input: values plus a
// deterministic key order (insertion order for instances, sorted for maps)
// so error paths never depend on Go map iteration order.
type rawInput struct {
	order  []string
	values map[string]any
}

func normalizeRaw(v any) (rawInput, bool) {
	switch val := v.(type) {
	case *Config:
		values := make(map[string]any, val.Len())
		for _, key := range val.order {
			values[key] = val.values[key]
		}
		return rawInput{order: val.Keys(), values: values}, true
	case LeafMap:
		return normalizeRaw(map[string]any(val))
	case map[string]any:
		values := make(map[string]any, len(val))
		entries := sortedEntries(val)
		order := make([]string, 0, len(entries))
		for _, e := range entries {
			key := e.key.(string)
			order = append(order, key)
			values[key] = e.value
		}
		return rawInput{order: order, values: values}, true
	case map[any]any:
		values := make(map[string]any, len(val))
		for k, v := range val {
			values[fmt.Sprintf("%v", k)] = v
		}
		return normalizeRaw(values)
	}
	return rawInput{}, false
}

func (s *Schema) check(v any, ctx *Context) (any, error) {
	raw, ok := normalizeRaw(v)
	if !ok {
		return nil, checkErrorAt(ctx, "cannot cast value %v (%T) into %s", v, v, s.name)
	}

	for _, rc := range s.rootCheckers {
		if !rc.Pre {
			continue
		}
		if err := rc.Check(s, mapValues(raw.values)); err != nil {
			return nil, wrapCheckerError(ctx, err)
		}
	}

	for _, fc := range s.fieldCheckers {
		if !fc.Pre {
			continue
		}
		for _, name := range s.expandTargets(fc) {
			val, present := raw.values[name]
			if !present {
				continue
			}
			exit := ctx.Enter(name)
			out, err := fc.Check(s, val, mapValues(raw.values), name)
			if err != nil {
				err = wrapCheckerError(ctx, err)
				exit()
				return nil, err
			}
			exit()
			raw.values[name] = out
		}
	}

	inst := &Config{schema: s, values: map[string]any{}}

	for _, name := range s.order {
		field := s.fields[name]
		val, present := raw.values[name]

		// Resolution precedence: explicit input, then the bound
		// environment variable, then the declared default.
		if !present && field.envVar != "" {
			if env, ok := os.LookupEnv(field.envVar); ok {
				if env != "" || !field.ignoreEmptyEnv {
					val, present = env, true
				}
			}
		}
		if !present {
			val, present = field.Default()
		}
		if !present {
			if field.Required() && !ctx.IgnoreMissing() {
				exit := ctx.Enter(name)
				err := checkErrorAt(ctx, "field %q is required, but its value is not specified", name)
				exit()
				return nil, err
			}
			continue
		}

		exit := ctx.Enter(name)
		coerced, err := field.typ.Check(val, ctx)
		if err == nil && len(field.choices) > 0 {
			err = checkChoices(ctx, field, coerced)
		}
		exit()
		if err != nil {
			return nil, err
		}
		inst.put(name, coerced)
	}

	for _, name := range raw.order {
		if _, declared := s.fields[name]; declared {
			continue
		}
		if !s.allowUndefined {
			exit := ctx.Enter(name)
			err := checkErrorAt(ctx, "undefined field")
			err.Causes = []error{&UndefinedFieldError{Schema: s.name, Field: name}}
			exit()
			return nil, err
		}
		inst.put(name, raw.values[name])
	}

	for _, rc := range s.rootCheckers {
		if rc.Pre {
			continue
		}
		if err := rc.Check(s, inst); err != nil {
			return nil, wrapCheckerError(ctx, err)
		}
	}

	for _, fc := range s.fieldCheckers {
		if fc.Pre {
			continue
		}
		for _, name := range s.expandTargets(fc) {
			val, present := inst.Get(name)
			if !present {
				continue
			}
			exit := ctx.Enter(name)
			out, err := fc.Check(s, val, inst, name)
			if err != nil {
				err = wrapCheckerError(ctx, err)
				exit()
				return nil, err
			}
			exit()
			inst.values[name] = out
		}
	}

	return inst, nil
}

func checkChoices(ctx *Context, field *Field, v any) *CheckError {
	for _, choice := range field.choices {
		if reflect.DeepEqual(v, choice) {
			return nil
		}
	}
	return checkErrorAt(ctx, "invalid value for field %q: not one of %v", field.name, field.choices)
}

// expandTargets resolves a checker's field list against the schema,
// expanding the wildcard to every declared field and dropping duplicates
// while keeping declaration order.
func (s *Schema) expandTargets(fc FieldChecker) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, target := range fc.Fields {
		if target == Wildcard {
			for _, name := range s.order {
				add(name)
			}
			continue
		}
		add(target)
	}
	return out
}
