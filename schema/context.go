package schema

import "strings"

// Context threads path tracking and validation flags through a single
// validation pass. A Context is not safe for concurrent use.
type Context struct {
	path          []string
	ignoreMissing bool
}

// ContextOption mutates a freshly created Context.
type ContextOption func(*Context)

// IgnoreMissing makes required-but-absent fields be skipped instead of
// erroring. Used to preview defaults for partially specified instances.
func IgnoreMissing() ContextOption {
	return func(c *Context) {
		c.ignoreMissing = true
	}
}

// NewContext creates a validation context rooted at the empty path.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{}
	for _, opt := range opts {
		if opt != nil {
			opt(ctx)
		}
	}
	return ctx
}

// Enter pushes a path segment and returns the function that pops it.
//
//	defer ctx.Enter("nested")()
func (c *Context) Enter(segment string) func() {
	c.path = append(c.path, segment)
	return func() {
		c.path = c.path[:len(c.path)-1]
	}
}

// Path renders the current location in dotted form.
func (c *Context) Path() string {
	return strings.Join(c.path, ".")
}

// IgnoreMissing reports whether required-field errors are suppressed.
func (c *Context) IgnoreMissing() bool {
	return c.ignoreMissing
}
