package schema

// LeafMap is a mapping that the merger, the flattener, and the CLI layer
// treat as a single literal value. It is never unflattened into nested
// instances and never recursed into, which is how structured flag values
// survive merging intact.
type LeafMap map[string]any

// Flatten converts an instance into a single-level mapping with dotted
// keys. Only nested instances are flattened recursively; every other
// value, plain maps and LeafMaps included, is a leaf and stays whole.
// Keeping plain maps whole is what makes Unflatten an exact inverse.
func Flatten(c *Config) map[string]any {
	out := map[string]any{}
	flattenInto(out, "", c.pairs())
	return out
}

type pair struct {
	key   string
	value any
}

// pairs exposes the key/value pairs in insertion order.
func (c *Config) pairs() []pair {
	out := make([]pair, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, pair{key: key, value: c.values[key]})
	}
	return out
}

func flattenInto(out map[string]any, prefix string, pairs []pair) {
	for _, p := range pairs {
		key := p.key
		if prefix != "" {
			key = prefix + "." + p.key
		}
		switch v := p.value.(type) {
		case *Config:
			flattenInto(out, key, v.pairs())
		default:
			out[key] = v
		}
	}
}

// Unflatten rebuilds a nested free-form instance from a dotted-key
// mapping. It is the exact inverse of Flatten.
func Unflatten(flat map[string]any) *Config {
	root := NewConfig()
	for _, e := range sortedEntries(flat) {
		key := e.key.(string)
		node := root
		segments := splitPath(key)
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node.Get(segment)
			cfg, isCfg := child.(*Config)
			if !ok || !isCfg {
				cfg = NewConfig()
				node.put(segment, cfg)
			}
			node = cfg
		}
		node.put(segments[len(segments)-1], e.value)
	}
	return root
}

func splitPath(key string) []string {
	var out []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			out = append(out, key[start:i])
			start = i + 1
		}
	}
	return append(out, key[start:])
}
