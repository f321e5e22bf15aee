package schema

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ErrBind wraps failures while decoding an instance into a Go struct.
var ErrBind = errors.New("schema: bind failed")

// BindOption tweaks the mapstructure decoder used by Bind.
type BindOption func(*mapstructure.DecoderConfig)

// WithBindTag overrides the struct tag consulted while decoding. The
// default tag is "schema".
func WithBindTag(tag string) BindOption {
	return func(cfg *mapstructure.DecoderConfig) {
		if tag != "" {
			cfg.TagName = tag
		}
	}
}

// WithStrictBind rejects instance keys that have no struct destination.
func WithStrictBind() BindOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}

// Bind decodes a (typically validated) instance into target, which must be
// a pointer to a struct. Decoding is weakly typed so string-coerced scalars
// land in numeric struct fields.
func Bind(c *Config, target any, opts ...BindOption) error {
	if c == nil {
		return fmt.Errorf("%w: nil instance", ErrBind)
	}
	cfg := mapstructure.DecoderConfig{
		TagName:          "schema",
		WeaklyTypedInput: true,
		Result:           target,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	decoder, err := mapstructure.NewDecoder(&cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	if err := decoder.Decode(c.ToMap()); err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	return nil
}
