package loader

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-schema/schema"
)

// sourcePair is one key/value entry of a source tree in deterministic
// order: insertion order for Config sources, sorted for plain maps, so
// conflicting keys inside a single source always raise the same error.
type sourcePair struct {
	key   string
	value any
}

func sourcePairs(v any) ([]sourcePair, bool) {
	switch src := v.(type) {
	case *schema.Config:
		keys := src.Keys()
		out := make([]sourcePair, 0, len(keys))
		for _, key := range keys {
			val, _ := src.Get(key)
			out = append(out, sourcePair{key: key, value: val})
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(src))
		for key := range src {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make([]sourcePair, 0, len(keys))
		for _, key := range keys {
			out = append(out, sourcePair{key: key, value: src[key]})
		}
		return out, true
	case map[any]any:
		converted := make(map[string]any, len(src))
		for key, val := range src {
			converted[fmt.Sprintf("%v", key)] = val
		}
		return sourcePairs(converted)
	}
	return nil, false
}

// stage expands dotted keys into nested free-form instances and detects
// object/leaf clashes inside the source itself. The staged tree is then
// merged into the working instance by apply.
func stage(pairs []sourcePair, dst *schema.Config, prefix string) (*schema.Config, error) {
	for _, p := range pairs {
		fullPath := prefix + p.key

		segments := splitKey(p.key)
		node := dst
		for _, segment := range segments[:len(segments)-1] {
			existing, ok := node.Get(segment)
			// nil behaves like an absent value here, same as in apply
			if !ok || existing == nil {
				child := schema.NewConfig()
				mustSet(node, segment, child)
				node = child
				continue
			}
			child, isConfig := existing.(*schema.Config)
			if !isConfig {
				return nil, &MergeConflictError{Path: fullPath, Msg: msgObjectIntoLeaf}
			}
			node = child
		}

		leaf := segments[len(segments)-1]
		existing, hasExisting := node.Get(leaf)
		existingConfig, existingIsConfig := existing.(*schema.Config)

		if _, opaque := p.value.(schema.LeafMap); opaque {
			mustSet(node, leaf, p.value)
			continue
		}

		if nested, ok := sourcePairs(p.value); ok {
			target := existingConfig
			if !hasExisting || !existingIsConfig {
				if hasExisting && existing != nil {
					return nil, &MergeConflictError{Path: fullPath, Msg: msgObjectIntoLeaf}
				}
				target = schema.NewConfig()
			}
			if _, err := stage(nested, target, fullPath+"."); err != nil {
				return nil, err
			}
			mustSet(node, leaf, target)
			continue
		}

		if hasExisting && existingIsConfig {
			return nil, &MergeConflictError{Path: fullPath, Msg: msgLeafIntoObject}
		}
		mustSet(node, leaf, p.value)
	}
	return dst, nil
}

// apply merges a staged tree into the working instance, recursing where
// both sides are objects and failing on object/leaf shape clashes. Later
// sources win per leaf; earlier structure is preserved where not
// overwritten.
func apply(working, staged *schema.Config, prefix string) error {
	for _, key := range staged.Keys() {
		val, _ := staged.Get(key)
		stagedConfig, stagedIsConfig := val.(*schema.Config)

		existing, hasExisting := working.Get(key)
		existingConfig, existingIsConfig := existing.(*schema.Config)

		switch {
		case hasExisting && existingIsConfig && stagedIsConfig:
			if err := apply(existingConfig, stagedConfig, prefix+key+"."); err != nil {
				return err
			}
		case hasExisting && existingIsConfig && !stagedIsConfig:
			return &MergeConflictError{Path: prefix + key, Msg: msgLeafIntoObject}
		case hasExisting && existing != nil && !existingIsConfig && stagedIsConfig:
			return &MergeConflictError{Path: prefix + key, Msg: msgObjectIntoLeaf}
		default:
			if err := working.Set(key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// mustSet writes into a free-form staging node; Dynamic instances accept
// any key, so the error path is unreachable.
func mustSet(c *schema.Config, key string, value any) {
	if err := c.Set(key, value); err != nil {
		panic(err)
	}
}

func splitKey(key string) []string {
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
