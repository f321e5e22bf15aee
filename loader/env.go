package loader

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/tidwall/sjson"
)

// DefaultEnvDelimiter nests environment keys, so composed_words survive:
// APP_SERVER__PORT becomes server.port.
var DefaultEnvDelimiter = "__"

// LoadEnv merges every environment variable carrying the prefix. The
// prefix is stripped, the rest is lowercased, and delim occurrences
// become path separators. Values stay strings; coercion happens at Get.
// Empty values are skipped, matching the per-field envvar policy.
//
// The nested tree is assembled as a JSON document so a..b style keys
// cannot smuggle extra nesting levels past the delimiter.
func (l *Loader) LoadEnv(prefix, delim string) error {
	if delim == "" {
		delim = DefaultEnvDelimiter
	}
	l.log.Debug("env source", "prefix", prefix, "delimiter", delim)

	doc := []byte(`{}`)
	for _, entry := range os.Environ() {
		parts := strings.SplitN(entry, "=", 2)
		key, value := parts[0], parts[1]
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		key = strings.TrimPrefix(key, prefix)
		if key == "" || value == "" {
			continue
		}
		path := strings.ReplaceAll(strings.ToLower(key), delim, ".")

		var err error
		doc, err = sjson.SetBytes(doc, path, value)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to assemble environment document").
				WithTextCode("ENV_LOAD_FAILED").
				WithMetadata(map[string]any{"prefix": prefix, "key": path})
		}
	}

	parsed, err := kjson.Parser().Unmarshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to decode environment document").
			WithTextCode("ENV_LOAD_FAILED").
			WithMetadata(map[string]any{"prefix": prefix})
	}
	if len(parsed) == 0 {
		return nil
	}
	return l.Load(parsed)
}
