package schema

import "sync"

// The compile cache is process-wide state keyed by definition name. It is
// written at most once per name: the first compilation wins and later
// Compile calls for the same name observe the cached schema, including
// concurrent first compilations.
var registry = struct {
	sync.RWMutex
	schemas map[string]*Schema
}{schemas: map[string]*Schema{}}

// Compile builds the immutable Schema for a Definition. It is idempotent:
// compiling the same name twice returns the schema from the first call.
func Compile(def Definition) (*Schema, error) {
	registry.RLock()
	cached, ok := registry.schemas[def.Name]
	registry.RUnlock()
	if ok {
		return cached, nil
	}

	registry.Lock()
	defer registry.Unlock()
	if cached, ok := registry.schemas[def.Name]; ok {
		return cached, nil
	}
	s, err := compileDefinition(def)
	if err != nil {
		return nil, err
	}
	registry.schemas[def.Name] = s
	return s, nil
}

// MustCompile is Compile that panics on a definition error. Schemas are
// usually declared at package init time, where a malformed definition is
// a programming error.
func MustCompile(def Definition) *Schema {
	s, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns a previously compiled schema by name.
func Lookup(name string) (*Schema, bool) {
	registry.RLock()
	defer registry.RUnlock()
	s, ok := registry.schemas[name]
	return s, ok
}

// Dynamic is the permissive, fieldless schema backing free-form instances
// and intermediate merge nodes. Its policy is inherited so ad hoc
// extensions stay permissive.
var Dynamic = MustCompile(Definition{
	Name:      "Config",
	Undefined: UndefinedAllowInherited,
})
