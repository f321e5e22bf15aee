package loader

import (
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-schema/logger"
	"github.com/goliatone/go-schema/schema"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultDelimiter separates path segments in dotted keys and flag names.
var DefaultDelimiter = "."

// Loader accumulates partial updates from heterogeneous sources (maps,
// dotted-key maps, instances, files, environment variables, flags) into a
// single working instance, then validates it against the root schema.
//
//	l, _ := loader.New(trainSchema)
//	_ = l.LoadFile("config/train.yaml")
//	_ = l.LoadEnv("APP_", "__")
//	cfg, err := l.Get()
//
// A Loader is not safe for concurrent use.
type Loader struct {
	schema   *schema.Schema
	working  *schema.Config
	log      logger.Logger
	solvers  []Solver
	defaults map[string]any
}

// Option configures a Loader during construction.
type Option func(*Loader)

// WithLogger replaces the debug logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithInstance seeds the loader with an existing (possibly partially
// populated) instance instead of a fresh one with defaults.
func WithInstance(c *schema.Config) Option {
	return func(ld *Loader) {
		if c != nil {
			ld.working = c
		}
	}
}

// WithDefaults merges a defaults mapping as the lowest-precedence source
// before any Load call. Dotted keys are supported.
func WithDefaults(values map[string]any) Option {
	return func(ld *Loader) {
		ld.defaults = values
	}
}

// WithSolver appends solver passes run on a copy of the working instance
// right before validation.
func WithSolver(solvers ...Solver) Option {
	return func(ld *Loader) {
		for _, s := range solvers {
			if s != nil {
				ld.solvers = append(ld.solvers, s)
			}
		}
	}
}

// New creates a Loader for the given root schema. The working instance
// starts from the schema's defaults.
func New(s *schema.Schema, opts ...Option) (*Loader, error) {
	if s == nil {
		return nil, errors.New("schema cannot be nil", errors.CategoryBadInput).
			WithTextCode("NIL_SCHEMA")
	}
	l := &Loader{
		schema: s,
		log:    logger.NewDefaultLogger("loader"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.working == nil {
		l.working = s.New()
	}
	if l.defaults != nil {
		k := koanf.New(DefaultDelimiter)
		if err := k.Load(confmap.Provider(l.defaults, DefaultDelimiter), nil); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load default values").
				WithTextCode("DEFAULT_VALUES_LOAD_FAILED").
				WithMetadata(map[string]any{"values_count": len(l.defaults)})
		}
		if err := l.Load(k.Raw()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Schema returns the root schema the loader validates against.
func (l *Loader) Schema() *schema.Schema { return l.schema }

// Config returns the working instance as accumulated so far. It has not
// been validated; use Get for the validated form.
func (l *Loader) Config() *schema.Config { return l.working }

// Load merges one source mapping into the working instance. Keys
// containing the delimiter are expanded into nested objects first; a
// LeafMap value is merged as a single literal. A merge conflict aborts
// this call and leaves earlier merges applied.
func (l *Loader) Load(values map[string]any) error {
	return l.loadSource(values)
}

// LoadConfig merges an existing instance as a source.
func (l *Loader) LoadConfig(c *schema.Config) error {
	if c == nil {
		return nil
	}
	return l.loadSource(c)
}

// LoadKoanf merges the raw tree of a caller-assembled koanf instance.
func (l *Loader) LoadKoanf(k *koanf.Koanf) error {
	if k == nil {
		return nil
	}
	return l.Load(k.Raw())
}

// LoadStruct merges a tagged Go struct as a source. Field keys follow the
// "schema" struct tag.
func (l *Loader) LoadStruct(v any) error {
	if v == nil {
		return errors.New("struct cannot be nil", errors.CategoryBadInput).
			WithTextCode("NIL_STRUCT")
	}
	k := koanf.New(DefaultDelimiter)
	if err := k.Load(structs.Provider(v, "schema"), nil); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from struct").
			WithTextCode("STRUCT_LOAD_FAILED")
	}
	return l.Load(k.Raw())
}

func (l *Loader) loadSource(v any) error {
	pairs, ok := sourcePairs(v)
	if !ok {
		return errors.New("source must be a mapping or a schema instance", errors.CategoryBadInput).
			WithTextCode("INVALID_SOURCE_TYPE").
			WithMetadata(map[string]any{"source_type": typeName(v)})
	}
	staged, err := stage(pairs, schema.NewConfig(), "")
	if err != nil {
		return err
	}
	return apply(l.working, staged, "")
}

// GetOption configures a single Get call.
type GetOption = schema.ContextOption

// Get runs the working instance through the schema's checker pipeline and
// coercion engine, returning the validated instance. The working instance
// itself is left untouched, so further Load calls keep accumulating.
func (l *Loader) Get(opts ...GetOption) (*schema.Config, error) {
	work := l.working
	if len(l.solvers) > 0 {
		work = work.Clone()
		for _, s := range l.solvers {
			s.Solve(work)
		}
	}
	return l.schema.Validate(work, opts...)
}

// MustGet is Get that panics on validation failure.
func (l *Loader) MustGet(opts ...GetOption) *schema.Config {
	cfg, err := l.Get(opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
