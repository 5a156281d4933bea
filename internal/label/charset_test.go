package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUTF8(t *testing.T) {
	p := DefaultCharsetPolicy()

	tests := []struct {
		name         string
		text         string
		preferLegacy bool
		route        Route
		payload      string
	}{
		{"forced overrides legacy wish", "【A】", true, RouteUTF8, "【A】"},
		{"forced without wish", "【A】", false, RouteUTF8, "【A】"},
		{"plain stays utf8", "ABC", false, RouteUTF8, "ABC"},
		{"legacy honoured for ascii", "ABC", true, RouteLegacy, "ABC"},
		{"legacy with replacement", "（1）", true, RouteLegacy, "(1)"},
		{"unmappable falls back to utf8", "中文", true, RouteUTF8, "中文"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, payload, err := p.Resolve(tt.text, tt.preferLegacy)
			require.NoError(t, err)
			assert.Equal(t, tt.route, route)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestResolveReplaceAndASCII(t *testing.T) {
	p := DefaultCharsetPolicy()
	p.Mode = ReplaceAndASCII

	tests := []struct {
		text string
		want string
	}{
		{"【A】", "[A]"},
		{"ＡＢ１２", "AB12"},
		{"型号：X，数量", ""},
		{"“q”", `"q"`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			route, payload, err := p.Resolve(tt.text, false)
			assert.Equal(t, RouteLegacy, route)
			if tt.want == "" {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindEncoding))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestToASCIINamesOffender(t *testing.T) {
	_, err := DefaultCharsetPolicy().ToASCII("AB中")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "U+4E2D")
}

func TestCustomForcedSet(t *testing.T) {
	p := DefaultCharsetPolicy()
	p.Forced = "★"
	route, _, err := p.Resolve("【A】", true)
	require.NoError(t, err)
	assert.Equal(t, RouteLegacy, route)

	route, payload, err := p.Resolve("★", true)
	require.NoError(t, err)
	assert.Equal(t, RouteUTF8, route)
	assert.Equal(t, "★", payload)
}

func TestParseCharsetMode(t *testing.T) {
	for in, want := range map[string]CharsetMode{
		"":        UTF8,
		"utf8":    UTF8,
		"UTF-8":   UTF8,
		"ascii":   ReplaceAndASCII,
		"replace": ReplaceAndASCII,
	} {
		got, err := ParseCharsetMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCharsetMode("latin1")
	assert.True(t, IsKind(err, KindConfiguration))
}
