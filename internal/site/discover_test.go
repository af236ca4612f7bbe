package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParsePageConfig(t *testing.T) {
	cfg, err := ParsePageConfig(` id: "P1", endpoint: "/", bool_value: true, weight: 3, rooted-urls: false, broken`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":          "P1",
		"endpoint":    "/",
		"bool_value":  true,
		"weight":      3,
		"rooted-urls": false,
	}, cfg)
}

func TestDiscoverTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p1.html"), "{{/* id: \"P1\", endpoint: \"/\", bool_value: True */}}\n<html></html>\n")
	writeFile(t, filepath.Join(dir, "sub.html"), "{{- /* id: \"P2\", endpoint: \"/subpage/\" */ -}}\n<html></html>\n")
	writeFile(t, filepath.Join(dir, "special.html"), "{{/* id: \"404\", endpoint: \"/a/page/somewhere\", rooted-urls: true */}}\n")
	writeFile(t, filepath.Join(dir, "layout.html"), "{{/* endpoint: \"/nope\" */}}\n")
	writeFile(t, filepath.Join(dir, "partial.html"), "<p>no header</p>\n")
	writeFile(t, filepath.Join(dir, "empty.html"), "")
	writeFile(t, filepath.Join(dir, "nested", "deep.html"), "{{/* id: \"DEEP\", endpoint: \"/deep\" */}}\n")

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, DiscoverTemplates(dir, reg))

	assert.Equal(t, []string{"404", "P1", "P2"}, reg.IDs())

	p1, _ := reg.Get("P1")
	assert.Equal(t, TemplatePage, p1.Kind())
	assert.Equal(t, "p1.html", p1.Template())
	assert.Equal(t, true, p1.Fields()["bool_value"])

	special, _ := reg.Get("404")
	assert.True(t, special.Rooted())
}

func TestDiscoverTemplates_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "{{/* id: \"P1\", endpoint: \"/a\" */}}\n")
	writeFile(t, filepath.Join(dir, "b.html"), "{{/* id: \"P1\", endpoint: \"/b\" */}}\n")

	reg, err := NewRegistry()
	require.NoError(t, err)
	require.Error(t, DiscoverTemplates(dir, reg))
}

func TestDiscoverTemplates_MissingDir(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.Error(t, DiscoverTemplates(filepath.Join(t.TempDir(), "missing"), reg))
}
