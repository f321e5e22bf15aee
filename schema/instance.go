package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/copystructure"
)

// Config is an instance of a schema under construction or after
// validation: an insertion-ordered set of key/value pairs. Declared fields
// have no reserved slots; a key exists only once assigned, and undeclared
// keys are allowed when the owning schema permits them.
type Config struct {
	schema *Schema
	order  []string
	values map[string]any
}

// NewConfig returns an empty free-form instance of the Dynamic schema.
func NewConfig() *Config {
	return Dynamic.New()
}

// New creates an instance of the schema with every declared default
// materialized. Fields without a default or factory stay absent.
func (s *Schema) New() *Config {
	c := &Config{schema: s, values: map[string]any{}}
	for _, name := range s.order {
		if def, ok := s.fields[name].Default(); ok {
			c.put(name, def)
		}
	}
	return c
}

// Defaults is an alias for New that reads better at call sites interested
// in previewing default values.
func (s *Schema) Defaults() *Config {
	return s.New()
}

// Schema returns the owning schema.
func (c *Config) Schema() *Schema { return c.schema }

// Set assigns a key. Assigning a key the schema does not declare fails
// immediately with an UndefinedFieldError unless the schema allows
// undefined fields.
func (c *Config) Set(key string, value any) error {
	if _, declared := c.schema.fields[key]; !declared && !c.schema.allowUndefined {
		return &UndefinedFieldError{Schema: c.schema.name, Field: key}
	}
	c.put(key, value)
	return nil
}

// put assigns without the policy check; the coercion engine uses it once
// a key has already been admitted.
func (c *Config) put(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.order = append(c.order, key)
	}
	c.values[key] = value
}

// Get returns the value for key and whether it is present.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetDefault returns the value for key, or fallback when absent.
func (c *Config) GetDefault(key string, fallback any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return fallback
}

// Has reports whether the key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Delete removes a key; deleting an absent key is a no-op.
func (c *Config) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Keys returns the present keys in insertion order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of present keys.
func (c *Config) Len() int { return len(c.values) }

// Equal reports whether both instances share the same schema, key set,
// and values. Nested instances compare recursively.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.schema != other.schema || len(c.values) != len(other.values) {
		return false
	}
	for key, v := range c.values {
		ov, ok := other.values[key]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if ac, ok := a.(*Config); ok {
		bc, ok := b.(*Config)
		return ok && ac.Equal(bc)
	}
	return reflect.DeepEqual(a, b)
}

// Clone deep-copies the instance. Nested instances are cloned
// recursively; other values go through copystructure.
func (c *Config) Clone() *Config {
	out := &Config{schema: c.schema, values: make(map[string]any, len(c.values))}
	for _, key := range c.order {
		switch v := c.values[key].(type) {
		case *Config:
			out.put(key, v.Clone())
		default:
			cloned, err := copystructure.Copy(v)
			if err != nil {
				cloned = v
			}
			out.put(key, cloned)
		}
	}
	return out
}

// ToMap converts the instance into a plain nested map, recursing into
// nested instances. LeafMap values are copied through untouched.
func (c *Config) ToMap() map[string]any {
	out := make(map[string]any, len(c.values))
	for _, key := range c.order {
		switch v := c.values[key].(type) {
		case *Config:
			out[key] = v.ToMap()
		default:
			out[key] = v
		}
	}
	return out
}

// String renders the instance as Name(key=value, ...) with keys sorted,
// which keeps log lines and test failures stable.
func (c *Config) String() string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, c.values[key])
	}
	return c.schema.name + "(" + strings.Join(parts, ", ") + ")"
}
