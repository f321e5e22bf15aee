package loader

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-schema/schema"
)

// Solver transforms the working instance right before validation.
type Solver interface {
	Solve(c *schema.Config)
}

// VariablesSolver resolves ${dotted.path} style references against the
// merged tree itself. A reference spanning the whole value keeps the
// referenced value's type; embedded references splice in its string form.
type VariablesSolver struct {
	start string
	end   string
}

// NewVariablesSolver builds a solver with the given delimiters, normally
// "${" and "}".
func NewVariablesSolver(start, end string) *VariablesSolver {
	return &VariablesSolver{start: start, end: end}
}

// maxResolvePasses caps chained references so cycles terminate.
const maxResolvePasses = 8

func (s *VariablesSolver) Solve(c *schema.Config) {
	for pass := 0; pass < maxResolvePasses; pass++ {
		flat := schema.Flatten(c)
		changed := false
		for key, val := range flat {
			str, ok := val.(string)
			if !ok {
				continue
			}
			resolved, ok := s.resolve(str, flat)
			if !ok {
				continue
			}
			setPath(c, key, resolved)
			changed = true
		}
		if !changed {
			return
		}
	}
}

func (s *VariablesSolver) resolve(val string, flat map[string]any) (any, bool) {
	start := strings.Index(val, s.start)
	if start == -1 {
		return nil, false
	}
	rest := val[start+len(s.start):]
	end := strings.Index(rest, s.end)
	if end == -1 {
		return nil, false
	}
	path := rest[:end]

	replacement, ok := flat[path]
	if !ok {
		return nil, false
	}
	if len(s.start)+len(path)+len(s.end) == len(val) {
		return replacement, true
	}
	return val[:start] + fmt.Sprintf("%v", replacement) + rest[end+len(s.end):], true
}

// setPath rewrites an existing dotted location in place. The path came
// from Flatten, so every segment resolves and assignments cannot hit the
// undefined-field policy.
func setPath(c *schema.Config, path string, value any) {
	segments := splitKey(path)
	node := c
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node.Get(segment)
		cfg, isConfig := child.(*schema.Config)
		if !ok || !isConfig {
			return
		}
		node = cfg
	}
	mustSet(node, segments[len(segments)-1], value)
}
