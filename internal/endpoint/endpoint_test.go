package endpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeURL(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"root self", "/", "/", "./"},
		{"file self", "/x", "/x", "x"},
		{"dir self", "/x/", "/x/", "./"},
		{"nested file self", "/x/y", "/x/y", "y"},
		{"nested dir self", "/x/y/", "/x/y/", "./"},

		{"root to file", "/", "/x", "x"},
		{"root to dir", "/", "/x/", "x/"},
		{"root to nested file", "/", "/x/y", "x/y"},
		{"root to nested dir", "/", "/x/y/", "x/y/"},

		{"file to root", "/x", "/", "./"},
		{"dir to root", "/x/", "/", "../"},
		{"nested file to root", "/x/y", "/", "../"},
		{"nested dir to root", "/x/y/", "/", "../../"},
		{"nested dir to parent", "/x/y/", "/x/", "../"},

		{"file to sibling", "/x/y", "/x/z", "z"},
		{"dir to sibling dir", "/x/y/", "/x/z/", "../z/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeURL(tt.from, tt.to))
		})
	}
}

func TestRelativeURL_NeverRooted(t *testing.T) {
	endpoints := []string{"/", "/a", "/a/", "/a/b", "/a/b/", "/c/d/e", "/c/d/e/"}
	for _, from := range endpoints {
		for _, to := range endpoints {
			got := RelativeURL(from, to)
			assert.NotEmpty(t, got)
			assert.NotEqual(t, '/', rune(got[0]), "from %s to %s gave %s", from, to, got)
		}
	}
}

func TestRelativeURL_SelfReference(t *testing.T) {
	for _, e := range []string{"/", "/a/", "/a/b/", "/a/b/c/"} {
		assert.Equal(t, "./", RelativeURL(e, e), e)
	}
	assert.Equal(t, "c", RelativeURL("/a/b/c", "/a/b/c"))
	assert.Equal(t, "script.php", RelativeURL("/script.php", "/script.php"))
}

func TestLocalize(t *testing.T) {
	assert.Equal(t, "/om-oss/en/", Localize("/om-oss/", "en"))
	assert.Equal(t, "/en/script.php", Localize("/script.php", "en"))
	assert.Equal(t, "/en/", Localize("/", "en"))
	assert.Equal(t, "/a/b/en/c", Localize("/a/b/c", "en"))
	assert.Equal(t, "/om-oss/", Localize("/om-oss/", ""))
}

func TestValid(t *testing.T) {
	valid := []string{"/", "/x", "/x/", "/om-oss/", "/script.php", "/a_b/c-d/e.f", "/subpage/sub-no-trailing-slash"}
	for _, e := range valid {
		assert.True(t, Valid(e), e)
	}

	invalid := []string{"", "x/", "x", "/xy zz", "/xyö", "/a?b", "/tab\there", " /x", "/../escaped.html", "/a/../../b", "/./x", "/x/.."}
	for _, e := range invalid {
		assert.False(t, Valid(e), e)
	}
}

func TestIndexExtension(t *testing.T) {
	assert.Equal(t, ".html", IndexExtension("start.html"))
	assert.Equal(t, ".php", IndexExtension("script.php"))
	assert.Equal(t, ".html", IndexExtension("README"))
}

func TestOutputPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		endpoint string
		tag      string
		ext      string
		want     string
	}{
		{"root index", "/", "", ".html", "index.html"},
		{"localized root index", "/", "en", ".html", "en/index.html"},
		{"directory", "/om-oss/", "", "", "om-oss/index.html"},
		{"localized directory", "/om-oss/", "en", ".html", "om-oss/en/index.html"},
		{"file", "/script.php", "", ".php", "script.php"},
		{"localized file", "/script.php", "en", ".php", "en/script.php"},
		{"php index", "/app/", "", ".php", "app/index.php"},
		{"file without extension", "/subpage/sub-no-trailing-slash", "", ".html", "subpage/sub-no-trailing-slash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputPath(tt.endpoint, root, tt.tag, tt.ext)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestOutputPath_RelativeRootIsMadeAbsolute(t *testing.T) {
	got, err := OutputPath("/x", "out", "", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "x", filepath.Base(got))
}

func TestOutputPath_RejectsPathsOutsideRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	for _, e := range []string{"/../escaped.html", "/a/../../b/", "/.."} {
		_, err := OutputPath(e, root, "", ".html")
		require.ErrorIs(t, err, ErrOutsideRoot, e)
	}

	got, err := OutputPath("/a/../b.html", root, "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b.html"), got)
}
