package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-schema/logger"
	"github.com/goliatone/go-schema/schema"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serverSchema = schema.MustCompile(schema.Definition{
	Name: "loader.Server",
	Fields: []*schema.Field{
		schema.NewField("host", schema.String()).WithDefault("localhost"),
		schema.NewField("port", schema.Int()).WithDefault(8080),
	},
})

var appSchema = schema.MustCompile(schema.Definition{
	Name: "loader.App",
	Fields: []*schema.Field{
		schema.NewField("name", schema.String()),
		schema.NewField("debug", schema.Bool()).WithDefault(false),
		schema.NewField("server", schema.Object(serverSchema)),
	},
})

func appLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop{})}, opts...)
	l, err := New(appSchema, opts...)
	require.NoError(t, err)
	return l
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewRequiresSchema(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestWorkingInstanceStartsFromDefaults(t *testing.T) {
	l := appLoader(t)
	cfg := l.Config()

	assert.Equal(t, false, cfg.GetDefault("debug", nil))
	// the nested schema field materializes its own instance
	server, ok := cfg.GetDefault("server", nil).(*schema.Config)
	require.True(t, ok)
	assert.Equal(t, 8080, server.GetDefault("port", nil))
	// required fields without a default stay absent until loaded
	assert.False(t, cfg.Has("name"))
}

func TestGetValidatesWithoutMutatingWorking(t *testing.T) {
	l := appLoader(t)
	require.NoError(t, l.Load(map[string]any{"name": "svc", "server.port": "9090"}))

	cfg, err := l.Get()
	require.NoError(t, err)
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, 9090, server.GetDefault("port", nil))

	// the working copy still holds the raw string
	rawServer := l.Config().GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, "9090", rawServer.GetDefault("port", nil))

	// further loads keep accumulating
	require.NoError(t, l.Load(map[string]any{"debug": true}))
	cfg = l.MustGet()
	assert.Equal(t, true, cfg.GetDefault("debug", nil))
}

func TestGetFailsOnMissingRequired(t *testing.T) {
	l := appLoader(t)

	_, err := l.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTypeCheck)
	assert.Contains(t, err.Error(), `"name"`)

	// IgnoreMissing turns the partial tree into a usable preview
	cfg, err := l.Get(schema.IgnoreMissing())
	require.NoError(t, err)
	assert.False(t, cfg.Has("name"))
}

func TestUndeclaredKeyRejectedAtLoad(t *testing.T) {
	l := appLoader(t)

	err := l.Load(map[string]any{"rogue": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrUndefinedField)
}

func TestWithDefaults(t *testing.T) {
	l := appLoader(t, WithDefaults(map[string]any{
		"name":        "from-defaults",
		"server.host": "default-host",
	}))

	require.NoError(t, l.Load(map[string]any{"server.host": "explicit-host"}))

	cfg := l.MustGet()
	assert.Equal(t, "from-defaults", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, "explicit-host", server.GetDefault("host", nil))
}

func TestWithInstance(t *testing.T) {
	seed := appSchema.New()
	require.NoError(t, seed.Set("name", "seeded"))

	l := appLoader(t, WithInstance(seed))
	cfg := l.MustGet()
	assert.Equal(t, "seeded", cfg.GetDefault("name", nil))
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "app.json", `{"name": "json-app", "server": {"port": 9000}}`)

	l := appLoader(t)
	require.NoError(t, l.LoadFile(path))

	cfg := l.MustGet()
	assert.Equal(t, "json-app", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, 9000, server.GetDefault("port", nil))
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "app.yaml", "name: yaml-app\nserver:\n  host: yaml-host\n")

	l := appLoader(t)
	require.NoError(t, l.LoadFile(path))

	cfg := l.MustGet()
	assert.Equal(t, "yaml-app", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, "yaml-host", server.GetDefault("host", nil))
}

func TestLoadFileExtensionIsCaseInsensitive(t *testing.T) {
	path := writeFile(t, "app.YML", "name: upper-ext\n")

	l := appLoader(t)
	require.NoError(t, l.LoadFile(path))
	assert.Equal(t, "upper-ext", l.MustGet().GetDefault("name", nil))
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "app.txt", "name = nope")

	l := appLoader(t)
	err := l.LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ".txt", ufe.Ext)
}

func TestLoadFileMissing(t *testing.T) {
	l := appLoader(t)
	err := l.LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadYAMLNullDocumentIsNoop(t *testing.T) {
	path := writeFile(t, "empty.yaml", "---\n")

	l := appLoader(t)
	require.NoError(t, l.LoadYAML(path))
	// nothing changed
	assert.False(t, l.Config().Has("name"))
}

func TestLoadJSONIgnoresExtension(t *testing.T) {
	path := writeFile(t, "app.conf", `{"name": "disguised"}`)

	l := appLoader(t)
	require.NoError(t, l.LoadJSON(path))
	assert.Equal(t, "disguised", l.MustGet().GetDefault("name", nil))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GSCHEMATEST_NAME", "env-app")
	t.Setenv("GSCHEMATEST_SERVER__PORT", "7070")
	t.Setenv("GSCHEMATEST_DEBUG", "")

	l := appLoader(t)
	require.NoError(t, l.LoadEnv("GSCHEMATEST_", "__"))

	cfg := l.MustGet()
	assert.Equal(t, "env-app", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	// values arrive as strings and coerce at Get
	assert.Equal(t, 7070, server.GetDefault("port", nil))
	// empty values are skipped, so the default survives
	assert.Equal(t, false, cfg.GetDefault("debug", nil))
}

func TestLoadEnvDefaultDelimiter(t *testing.T) {
	t.Setenv("GSCHEMADELIM_SERVER__HOST", "env-host")

	l := appLoader(t)
	require.NoError(t, l.LoadEnv("GSCHEMADELIM_", ""))

	server := l.MustGet().GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, "env-host", server.GetDefault("host", nil))
}

func TestLoadStruct(t *testing.T) {
	type serverInput struct {
		Host string `schema:"host"`
		Port int    `schema:"port"`
	}
	type appInput struct {
		Name   string      `schema:"name"`
		Server serverInput `schema:"server"`
	}

	l := appLoader(t)
	require.NoError(t, l.LoadStruct(appInput{
		Name:   "struct-app",
		Server: serverInput{Host: "struct-host", Port: 6060},
	}))

	cfg := l.MustGet()
	assert.Equal(t, "struct-app", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, "struct-host", server.GetDefault("host", nil))
	assert.Equal(t, 6060, server.GetDefault("port", nil))
}

func TestLoadStructNil(t *testing.T) {
	l := appLoader(t)
	require.Error(t, l.LoadStruct(nil))
}

func TestLoadKoanf(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(map[string]any{
		"name":        "koanf-app",
		"server.port": 5050,
	}, "."), nil))

	l := appLoader(t)
	require.NoError(t, l.LoadKoanf(k))

	cfg := l.MustGet()
	assert.Equal(t, "koanf-app", cfg.GetDefault("name", nil))
	server := cfg.GetDefault("server", nil).(*schema.Config)
	assert.Equal(t, 5050, server.GetDefault("port", nil))

	// a nil instance is a no-op
	require.NoError(t, l.LoadKoanf(nil))
}

func TestMappingFieldFromMapSource(t *testing.T) {
	s := schema.MustCompile(schema.Definition{
		Name: "loader.Mapped",
		Fields: []*schema.Field{
			schema.NewField("labels", schema.Mapping(schema.String(), schema.Int())).NotRequired(),
		},
	})
	l, err := New(s, WithLogger(logger.Nop{}))
	require.NoError(t, err)

	// the merger stages the map value as an instance; the mapping field
	// must still validate it
	require.NoError(t, l.Load(map[string]any{
		"labels": map[string]any{"x": 1, "y": "2"},
	}))
	cfg, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, cfg.GetDefault("labels", nil))

	// dotted keys land in the same field
	require.NoError(t, l.Load(map[string]any{"labels.z": 3}))
	cfg = l.MustGet()
	assert.Equal(t, map[string]any{"x": 1, "y": 2, "z": 3}, cfg.GetDefault("labels", nil))
}

func TestMappingFieldFromFileSource(t *testing.T) {
	s := schema.MustCompile(schema.Definition{
		Name: "loader.MappedFile",
		Fields: []*schema.Field{
			schema.NewField("labels", schema.Mapping(schema.String(), schema.String())).NotRequired(),
		},
	})
	path := writeFile(t, "labels.yaml", "labels:\n  tier: web\n  zone: eu\n")

	l, err := New(s, WithLogger(logger.Nop{}))
	require.NoError(t, err)
	require.NoError(t, l.LoadFile(path))

	cfg := l.MustGet()
	assert.Equal(t, map[string]any{"tier": "web", "zone": "eu"}, cfg.GetDefault("labels", nil))
}

func TestLoadRejectsNonMappingSource(t *testing.T) {
	l := appLoader(t)
	err := l.loadSource("not a mapping")
	require.Error(t, err)
}

func TestMustGetPanicsOnInvalid(t *testing.T) {
	l := appLoader(t)
	assert.Panics(t, func() { l.MustGet() })
}
