package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tls := NewConfig()
	require.NoError(t, tls.Set("enabled", true))
	inner := NewConfig()
	require.NoError(t, inner.Set("port", 8080))
	require.NoError(t, inner.Set("tls", tls))
	cfg := NewConfig()
	require.NoError(t, cfg.Set("name", "svc"))
	require.NoError(t, cfg.Set("server", inner))

	flat := Flatten(cfg)
	assert.Equal(t, map[string]any{
		"name":               "svc",
		"server.port":        8080,
		"server.tls.enabled": true,
	}, flat)
}

func TestFlattenKeepsPlainMapWhole(t *testing.T) {
	// only instances flatten; a plain map value is a leaf
	inner := NewConfig()
	require.NoError(t, inner.Set("tls", map[string]any{"enabled": true}))
	cfg := NewConfig()
	require.NoError(t, cfg.Set("server", inner))

	flat := Flatten(cfg)
	assert.Equal(t, map[string]any{
		"server.tls": map[string]any{"enabled": true},
	}, flat)
}

func TestFlattenKeepsLeafMapWhole(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Set("opts", LeafMap{"a": 1, "b": map[string]any{"c": 2}}))

	flat := Flatten(cfg)
	require.Len(t, flat, 1)
	assert.Equal(t, LeafMap{"a": 1, "b": map[string]any{"c": 2}}, flat["opts"])
}

func TestUnflattenRoundTrip(t *testing.T) {
	flat := map[string]any{
		"name":               "svc",
		"server.port":        8080,
		"server.tls.enabled": true,
	}

	cfg := Unflatten(flat)
	assert.Equal(t, "svc", cfg.GetDefault("name", nil))

	server, ok := cfg.GetDefault("server", nil).(*Config)
	require.True(t, ok)
	assert.Equal(t, 8080, server.GetDefault("port", nil))

	tls, ok := server.GetDefault("tls", nil).(*Config)
	require.True(t, ok)
	assert.Equal(t, true, tls.GetDefault("enabled", nil))

	assert.Equal(t, flat, Flatten(cfg))
}

func TestUnflattenInvertsFlattenWithMapValues(t *testing.T) {
	inner := NewConfig()
	require.NoError(t, inner.Set("labels", map[string]any{"tier": "web"}))
	cfg := NewConfig()
	require.NoError(t, cfg.Set("server", inner))
	require.NoError(t, cfg.Set("opts", LeafMap{"a": 1}))

	rebuilt := Unflatten(Flatten(cfg))
	assert.True(t, cfg.Equal(rebuilt))
}

func TestUnflattenLeafOverwrittenByDeeperKey(t *testing.T) {
	// sorted application means "a" is placed first and then replaced by
	// the object that "a.b" requires
	cfg := Unflatten(map[string]any{
		"a":   1,
		"a.b": 2,
	})
	a, ok := cfg.GetDefault("a", nil).(*Config)
	require.True(t, ok)
	assert.Equal(t, 2, a.GetDefault("b", nil))
}
