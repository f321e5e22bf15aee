package schema

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Type describes an accepted value shape. The variant set is closed: Any,
// Int, Float, Bool, String, Optional, Union, Sequence, Mapping, and Object.
//
// Check coerces raw input into the canonical form for the type, or returns
// a CheckError qualified with the context's current path.
type Type interface {
	Check(v any, ctx *Context) (any, error)
	String() string
}

// Kind enumerates the primitive value kinds.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	default:
		return "unknown"
	}
}

type anyType struct{}

// Any accepts every value unchanged.
func Any() Type { return anyType{} }

func (anyType) Check(v any, ctx *Context) (any, error) { return v, nil }
func (anyType) String() string                         { return "any" }

type primitiveType struct {
	kind Kind
}

// Int accepts integers, integral floats, and numeric strings.
func Int() Type { return primitiveType{kind: KindInt} }

// Float accepts floats, integers (widened), and numeric strings.
func Float() Type { return primitiveType{kind: KindFloat} }

// Bool accepts booleans, 0/1 integers, and the usual truthy string forms.
func Bool() Type { return primitiveType{kind: KindBool} }

// String accepts strings and stringifies numbers and booleans.
func String() Type { return primitiveType{kind: KindString} }

func (t primitiveType) String() string { return t.kind.String() }

func (t primitiveType) Check(v any, ctx *Context) (any, error) {
	out, ok := coercePrimitive(t.kind, v)
	if !ok {
		return nil, checkErrorAt(ctx, "cannot cast value %v (%T) into %s", v, v, t.kind)
	}
	return out, nil
}

func coercePrimitive(kind Kind, v any) (any, bool) {
	switch kind {
	case KindInt:
		return coerceInt(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBool:
		return coerceBool(v)
	case KindString:
		return coerceString(v)
	}
	return nil, false
}

func coerceInt(v any) (any, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int8:
		return int(val), true
	case int16:
		return int(val), true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case uint:
		return int(val), true
	case uint8:
		return int(val), true
	case uint16:
		return int(val), true
	case uint32:
		return int(val), true
	case uint64:
		return int(val), true
	case float32:
		return intFromFloat(float64(val))
	case float64:
		return intFromFloat(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, false
		}
		return int(parsed), true
	}
	return nil, false
}

func intFromFloat(f float64) (any, bool) {
	if math.Trunc(f) != f || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	return int(f), true
}

func coerceFloat(v any) (any, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, false
		}
		return parsed, true
	}
	return nil, false
}

func coerceBool(v any) (any, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "y", "yes", "on":
			return true, true
		case "0", "f", "false", "n", "no", "off":
			return false, true
		}
	}
	return nil, false
}

func coerceString(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	}
	return nil, false
}

type optionalType struct {
	inner Type
}

// Optional accepts nil and otherwise delegates to the inner type.
func Optional(inner Type) Type {
	if inner == nil {
		inner = Any()
	}
	return optionalType{inner: inner}
}

func (t optionalType) Check(v any, ctx *Context) (any, error) {
	if v == nil {
		return nil, nil
	}
	return t.inner.Check(v, ctx)
}

func (t optionalType) String() string {
	return fmt.Sprintf("Optional[%s]", t.inner)
}

type unionType struct {
	alternatives []Type
}

// Union tries each alternative in declared order; the first success wins.
func Union(alternatives ...Type) Type {
	return unionType{alternatives: alternatives}
}

func (t unionType) Check(v any, ctx *Context) (any, error) {
	causes := make([]error, 0, len(t.alternatives))
	for _, alt := range t.alternatives {
		out, err := alt.Check(v, ctx)
		if err == nil {
			return out, nil
		}
		causes = append(causes, err)
	}
	err := checkErrorAt(ctx, "value %v (%T) does not match %s", v, v, t)
	err.Causes = causes
	return nil, err
}

func (t unionType) String() string {
	names := make([]string, len(t.alternatives))
	for i, alt := range t.alternatives {
		names[i] = alt.String()
	}
	return fmt.Sprintf("Union[%s]", strings.Join(names, ", "))
}

type sequenceType struct {
	elem Type
}

// Sequence accepts slices and coerces each element.
func Sequence(elem Type) Type {
	if elem == nil {
		elem = Any()
	}
	return sequenceType{elem: elem}
}

func (t sequenceType) Check(v any, ctx *Context) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, checkErrorAt(ctx, "cannot cast value %v (%T) into %s", v, v, t)
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		exit := ctx.Enter(strconv.Itoa(i))
		coerced, err := t.elem.Check(rv.Index(i).Interface(), ctx)
		exit()
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

func (t sequenceType) String() string {
	return fmt.Sprintf("Sequence[%s]", t.elem)
}

type mappingType struct {
	key   Type
	value Type
}

// Mapping accepts map-shaped input and coerces every key and value.
func Mapping(key, value Type) Type {
	if key == nil {
		key = Any()
	}
	if value == nil {
		value = Any()
	}
	return mappingType{key: key, value: value}
}

func (t mappingType) Check(v any, ctx *Context) (any, error) {
	entries, ok := mappingEntries(v)
	if !ok {
		return nil, checkErrorAt(ctx, "cannot cast value %v (%T) into %s", v, v, t)
	}
	out := make(map[any]any, len(entries))
	stringKeys := true
	for _, entry := range entries {
		segment := fmt.Sprintf("%v", entry.key)
		exit := ctx.Enter(segment)
		key, err := t.key.Check(entry.key, ctx)
		if err != nil {
			exit()
			return nil, err
		}
		value, err := t.value.Check(entry.value, ctx)
		exit()
		if err != nil {
			return nil, err
		}
		if _, ok := key.(string); !ok {
			stringKeys = false
		}
		out[key] = value
	}
	if stringKeys {
		strMap := make(map[string]any, len(out))
		for k, v := range out {
			strMap[k.(string)] = v
		}
		return strMap, nil
	}
	return out, nil
}

func (t mappingType) String() string {
	return fmt.Sprintf("Mapping[%s, %s]", t.key, t.value)
}

type mapEntry struct {
	key   any
	value any
}

// mappingEntries normalizes map input into a deterministically ordered
// entry list so error paths do not depend on Go map iteration order.
// Free-form instances are accepted too: the merger stages map-shaped
// source values as instances, and those must still satisfy Mapping fields.
func mappingEntries(v any) ([]mapEntry, bool) {
	switch m := v.(type) {
	case LeafMap:
		return sortedEntries(map[string]any(m)), true
	case map[string]any:
		return sortedEntries(m), true
	case *Config:
		if m == nil {
			return nil, false
		}
		return sortedEntries(m.ToMap()), true
	case map[any]any:
		entries := make([]mapEntry, 0, len(m))
		for k, val := range m {
			entries = append(entries, mapEntry{key: k, value: val})
		}
		sort.Slice(entries, func(i, j int) bool {
			return fmt.Sprintf("%v", entries[i].key) < fmt.Sprintf("%v", entries[j].key)
		})
		return entries, true
	}
	return nil, false
}

func sortedEntries(m map[string]any) []mapEntry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]mapEntry, 0, len(m))
	for _, k := range keys {
		entries = append(entries, mapEntry{key: k, value: m[k]})
	}
	return entries
}

type objectType struct {
	schema *Schema
}

// Object accepts mapping-shaped input, or an existing instance of the
// schema, and validates it through the schema's checker pipeline.
func Object(s *Schema) Type {
	return objectType{schema: s}
}

func (t objectType) Check(v any, ctx *Context) (any, error) {
	return t.schema.check(v, ctx)
}

func (t objectType) String() string {
	return t.schema.Name()
}

// ObjectSchema returns the schema behind an Object type descriptor. The
// CLI surface generator uses it to expand nested objects into dotted flag
// prefixes.
func ObjectSchema(t Type) (*Schema, bool) {
	if obj, ok := t.(objectType); ok {
		return obj.schema, true
	}
	return nil, false
}

// InferType derives a Type from the runtime shape of a literal default
// value. Unknown shapes and nil resolve to Optional[any] / any.
func InferType(v any) Type {
	switch val := v.(type) {
	case nil:
		return Optional(Any())
	case bool:
		return Bool()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int()
	case float32, float64:
		return Float()
	case string:
		return String()
	case *Config:
		return Object(val.Schema())
	case LeafMap:
		return Any()
	case map[string]any:
		return Mapping(String(), Any())
	case []any:
		return Sequence(Any())
	default:
		return Any()
	}
}
