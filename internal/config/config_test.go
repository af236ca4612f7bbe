package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pomosite.yaml"), `version: "1.0"
site:
  template_dir: templates
  resources_dir: resources
  default_language: sv
items:
  FEED:
    endpoint: /feed/
languages:
  - tag: en
    catalog: translations/en.po
output:
  directory: out
  manifest: out.manifest
build:
  history: .pomosite/history.db
watch:
  debounce: 1s
`)

	cfg, err := Load(filepath.Join(dir, "pomosite.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "templates"), cfg.Site.TemplateDir)
	assert.Equal(t, filepath.Join(dir, "resources"), cfg.Site.ResourcesDir)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Directory)
	assert.Equal(t, filepath.Join(dir, "out.manifest"), cfg.Output.Manifest)
	assert.Equal(t, filepath.Join(dir, ".pomosite", "history.db"), cfg.Build.History)
	assert.Equal(t, filepath.Join(dir, "translations", "en.po"), cfg.Languages[0].Catalog)
	assert.Equal(t, "sv", cfg.Site.DefaultLanguage)
	assert.Equal(t, time.Second, cfg.Watch.Debounce.Std())
	assert.Equal(t, "/feed/", cfg.Items["FEED"]["endpoint"])
	assert.Equal(t, dir, cfg.BaseDir())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("site:\n  template_dir: t\n"), "/srv/site")
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, filepath.Join("/srv/site", "site"), cfg.Output.Directory)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce.Std())
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Output.Manifest)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "POMOSITE_TEST_OUT=from-dotenv\nPOMOSITE_TEST_LANG=de\n")
	writeFile(t, filepath.Join(dir, ".env.local"), "POMOSITE_TEST_LANG=fr\n")
	writeFile(t, filepath.Join(dir, "pomosite.yaml"), `site:
  template_dir: templates
  default_language: ${POMOSITE_TEST_LANG}
output:
  directory: ${POMOSITE_TEST_OUT}
`)
	t.Cleanup(func() {
		_ = os.Unsetenv("POMOSITE_TEST_OUT")
		_ = os.Unsetenv("POMOSITE_TEST_LANG")
	})

	cfg, err := Load(filepath.Join(dir, "pomosite.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from-dotenv"), cfg.Output.Directory)
	assert.Equal(t, "fr", cfg.Site.DefaultLanguage, ".env.local wins over .env")
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POMOSITE_TEST_OUT", "from-process")
	writeFile(t, filepath.Join(dir, ".env"), "POMOSITE_TEST_OUT=from-dotenv\n")
	writeFile(t, filepath.Join(dir, "pomosite.yaml"), "site:\n  template_dir: t\noutput:\n  directory: ${POMOSITE_TEST_OUT}\n")

	cfg, err := Load(filepath.Join(dir, "pomosite.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from-process"), cfg.Output.Directory)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unsupported version":     "version: \"9\"\nsite:\n  template_dir: t\n",
		"no inputs":               "output:\n  directory: out\n",
		"language without tag":    "site:\n  template_dir: t\nlanguages:\n  - catalog: en.po\n",
		"language without source": "site:\n  template_dir: t\nlanguages:\n  - tag: en\n",
		"catalog and template dir": "site:\n  template_dir: t\nlanguages:\n" +
			"  - tag: en\n    catalog: en.po\n    template_dir: en\n",
		"catalog without templates": "site:\n  resources_dir: r\nlanguages:\n  - tag: en\n    catalog: en.po\n",
		"id field":                  "items:\n  A:\n    id: B\n    endpoint: /\n",
		"bad log level":             "site:\n  template_dir: t\nlogging:\n  level: loud\n",
		"bad debounce":              "site:\n  template_dir: t\nwatch:\n  debounce: soon\n",
		"bad yaml":                  "site: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), t.TempDir())
			require.Error(t, err)
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "pomosite.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sv", cfg.Site.DefaultLanguage)
	require.Len(t, cfg.Languages, 1)
	assert.Equal(t, "en", cfg.Languages[0].Tag)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce.Std())

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NoError(t, Init(path, true))
}

func TestSite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates", "start.html"), "{{/* id: \"P1\", endpoint: \"/\" */}}\n<p>start</p>\n")
	writeFile(t, filepath.Join(dir, "templates", "layout.html"), "{{define \"layout\"}}{{end}}\n")
	writeFile(t, filepath.Join(dir, "resources", "logo.png"), "png")
	writeFile(t, filepath.Join(dir, "resources", "css", "site.css"), "body{}")
	writeFile(t, filepath.Join(dir, "resources", "robots.txt"), "")
	writeFile(t, filepath.Join(dir, "pomosite.yaml"), `site:
  template_dir: templates
  resources_dir: resources
  default_language: sv
items:
  EXT:
    endpoint: /elsewhere/
languages:
  - tag: en
    catalog: en.po
`)

	cfg, err := Load(filepath.Join(dir, "pomosite.yaml"))
	require.NoError(t, err)
	s, err := cfg.BuildSite()
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, []string{"EXT", "P1", "_2", "_4", "logo.png"}, s.Items.IDs())

	ext, ok := s.Items.Get("EXT")
	require.True(t, ok)
	assert.Equal(t, site.ReferenceOnly, ext.Kind())

	page, ok := s.Items.Get("P1")
	require.True(t, ok)
	assert.Equal(t, site.TemplatePage, page.Kind())
	assert.Equal(t, "start.html", page.Template())

	logo, ok := s.Items.Get("logo.png")
	require.True(t, ok)
	assert.Equal(t, "/logo.png", logo.Endpoint())

	assert.Equal(t, "sv", s.Languages.Default)
	require.Len(t, s.Languages.Translations, 1)
	assert.Equal(t, filepath.Join(dir, "en.po"), s.Languages.Translations[0].CatalogPath)
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	assert.Equal(t, "DEBUG", cfg.LogLevel().String())
	cfg.Logging.Level = ""
	assert.Equal(t, "INFO", cfg.LogLevel().String())
}
