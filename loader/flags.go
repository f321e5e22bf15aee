package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-schema/schema"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Flags derives one flag per leaf field of the root schema, expanding
// nested objects with a dotted prefix. Fields are visited in lexical
// order so the generated help is stable.
func (l *Loader) Flags(fs *pflag.FlagSet) {
	buildFlags(fs, l.schema, "")
}

// ParseArgs builds a flag set for the schema, parses args against it, and
// merges the flags that were actually set.
func (l *Loader) ParseArgs(args []string) error {
	fs := pflag.NewFlagSet(l.schema.Name(), pflag.ContinueOnError)
	l.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "failed to parse arguments").
			WithTextCode("FLAG_PARSE_FAILED")
	}
	return l.LoadFlags(fs)
}

// LoadFlags merges the values of a parsed flag set. Flags that were never
// set on the command line are dropped before merging, so they cannot
// overwrite earlier sources.
func (l *Loader) LoadFlags(fs *pflag.FlagSet) error {
	values := map[string]any{}
	fs.Visit(func(f *pflag.Flag) {
		if fv, ok := f.Value.(*flagValue); ok && fv.set {
			values[fv.name] = fv.value
		}
	})
	if len(values) == 0 {
		return nil
	}
	l.log.Debug("flags source", "flags_count", len(values))
	return l.Load(values)
}

func buildFlags(fs *pflag.FlagSet, s *schema.Schema, prefix string) {
	names := s.Fields()
	sort.Strings(names)
	for _, name := range names {
		field, _ := s.Field(name)
		full := prefix + name
		if nested, ok := schema.ObjectSchema(field.Type()); ok {
			buildFlags(fs, nested, full+DefaultDelimiter)
			continue
		}
		fs.Var(&flagValue{field: field, name: full}, full, flagHelp(field))
	}
}

func flagHelp(f *schema.Field) string {
	var sb strings.Builder
	if f.Description() != "" {
		sb.WriteString(f.Description())
		sb.WriteString(" ")
	}
	if def, ok := f.Default(); ok {
		if def == nil {
			sb.WriteString("(default null")
		} else {
			fmt.Fprintf(&sb, "(default %v", def)
		}
	} else if f.Required() {
		sb.WriteString("(required")
	} else {
		sb.WriteString("(optional")
	}
	if choices := f.Choices(); len(choices) > 0 {
		fmt.Fprintf(&sb, "; choices %v", choices)
	}
	sb.WriteString(")")
	return sb.String()
}

// flagValue coerces a flag's raw string through the field's type
// descriptor at parse time, so a malformed value fails immediately with
// the flag name attached. An unset flagValue is a distinguished sentinel,
// distinct from a flag explicitly set to null.
type flagValue struct {
	field *schema.Field
	name  string
	value any
	set   bool
}

func (v *flagValue) Set(raw string) error {
	parsed := parseFlagLiteral(raw)

	ctx := schema.NewContext()
	exit := ctx.Enter(v.name)
	coerced, err := v.field.Type().Check(parsed, ctx)
	exit()
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput,
			fmt.Sprintf("invalid value for flag --%s", v.name)).
			WithTextCode("INVALID_FLAG_VALUE").
			WithMetadata(map[string]any{"flag": v.name, "value": raw})
	}

	// Structured flag values merge as opaque leaves; without this the
	// merger would unflatten them into nested objects.
	if m, ok := coerced.(map[string]any); ok {
		coerced = schema.LeafMap(m)
	}

	v.value = coerced
	v.set = true
	return nil
}

func (v *flagValue) String() string {
	if !v.set {
		return ""
	}
	return fmt.Sprintf("%v", v.value)
}

func (v *flagValue) Type() string {
	return v.field.Type().String()
}

// parseFlagLiteral attempts a structured YAML parse of the raw flag value
// and falls back to the raw string when the value is not valid YAML.
func parseFlagLiteral(raw string) any {
	var out any
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return raw
	}
	return out
}
