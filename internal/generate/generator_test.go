package generate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/history"
	"git.home.luguber.info/inful/pomosite/internal/manifest"
	"git.home.luguber.info/inful/pomosite/internal/metrics"
	"git.home.luguber.info/inful/pomosite/internal/site"
	"git.home.luguber.info/inful/pomosite/internal/workspace"
)

const startTemplate = `{{/* id: "START", endpoint: "/" */}}
<html lang="{{ .language }}"><body>
<a href="{{ url_for_language "sv" }}">Svenska</a>
<a href="{{ url_for_language "en" }}">English</a>
<p>Hej</p>
<img src="{{ url_for "logo.png" }}" alt="Logo">
</body></html>
`

const enCatalog = `msgid ""
msgstr ""
"Language: en\n"

msgid "Hej"
msgstr "Hello"
`

type fixture struct {
	templates string
	output    string
	scratch   string
	site      *site.Site
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// newFixture creates a site with a start page, a logo and an English catalog. extra
// holds additional templates by file name.
func newFixture(t *testing.T, extra map[string]string, items ...site.Item) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		templates: filepath.Join(root, "templates"),
		output:    filepath.Join(root, "site"),
		scratch:   filepath.Join(root, "scratch"),
	}
	writeFile(t, filepath.Join(f.templates, "start.html"), startTemplate)
	for name, content := range extra {
		writeFile(t, filepath.Join(f.templates, name), content)
	}
	writeFile(t, filepath.Join(root, "en.po"), enCatalog)
	writeFile(t, filepath.Join(root, "resources", "logo.png"), "png")

	reg, err := site.NewRegistry(items...)
	require.NoError(t, err)
	require.NoError(t, site.DiscoverTemplates(f.templates, reg))
	require.NoError(t, reg.Add(site.NewStaticResource("logo.png", "/logo.png", filepath.Join(root, "resources", "logo.png"))))

	f.site = &site.Site{
		TemplateDir: f.templates,
		Items:       reg,
		Languages: site.Languages{
			Default:      "sv",
			Translations: []site.Translation{{Tag: "en", CatalogPath: filepath.Join(root, "en.po")}},
		},
	}
	return f
}

func (f *fixture) generator(opts ...Option) *Generator {
	base := []Option{
		WithWorkspaceFactory(func() *workspace.Manager { return workspace.NewManager(f.scratch) }),
		WithClean(true),
	}
	return New(f.site, f.output, append(base, opts...)...)
}

var hrefs = regexp.MustCompile(`(?:href|src)="([^"]*)"`)

func links(t *testing.T, html string) []string {
	t.Helper()
	var out []string
	for _, m := range hrefs.FindAllStringSubmatch(html, -1) {
		out = append(out, m[1])
	}
	return out
}

func TestRun_TwoLanguages(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.generator().Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, history.OutcomeSuccess, res.Outcome)
	assert.Nil(t, res.Failed)
	assert.NotEmpty(t, res.RunID)

	sv := readFile(t, filepath.Join(f.output, "index.html"))
	assert.Contains(t, sv, `lang="sv"`)
	assert.Contains(t, sv, "<p>Hej</p>")
	assert.Equal(t, []string{"./", "en/", "logo.png"}, links(t, sv))

	en := readFile(t, filepath.Join(f.output, "en", "index.html"))
	assert.Contains(t, en, `lang="en"`)
	assert.Contains(t, en, "<p>Hello</p>")
	assert.Equal(t, []string{"../", "./", "../logo.png"}, links(t, en))

	assert.FileExists(t, filepath.Join(f.output, "logo.png"))
	assert.NoFileExists(t, filepath.Join(f.output, "en", "logo.png"))

	assert.Len(t, res.Files, 3)
	assert.Len(t, res.Manifest, 3)

	leftovers, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "scratch workspace is removed after the run")
}

func TestRun_TranslatedPassKeepsUppercaseIDs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"om-oss.html": `{{/* id: "OM-OSS", endpoint: "/om-oss.html" */}}
<a href="{{ url_for "OM-OSS" }}" title="Hej">Hej</a>
<a href="{{ url_for "START" }}">Start</a>
`,
	})

	_, err := f.generator().Run(t.Context())
	require.NoError(t, err)

	en := readFile(t, filepath.Join(f.output, "en", "om-oss.html"))
	assert.Equal(t, []string{"om-oss.html", "./"}, links(t, en))
	assert.Contains(t, en, `title="Hello">Hello</a>`)
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	manifestPath := filepath.Join(t.TempDir(), "site.manifest")
	g := f.generator(WithManifest(manifestPath))

	first, err := g.Run(t.Context())
	require.NoError(t, err)
	firstManifest := readFile(t, manifestPath)

	second, err := g.Run(t.Context())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Manifest.Digest(), second.Manifest.Digest())
	assert.Equal(t, firstManifest, readFile(t, manifestPath))

	m, err := manifest.Read(manifestPath)
	require.NoError(t, err)
	assert.True(t, manifest.Diff(first.Manifest, m).Empty())
}

func TestRun_ValidationFailureWritesNothing(t *testing.T) {
	f := newFixture(t, nil, site.NewReferenceOnly("OTHER", "/"))

	res, err := f.generator().Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NotNil(t, res.Failed)
	assert.Equal(t, StateValidating, res.Failed.State)
	assert.Equal(t, history.OutcomeFailed, res.Outcome)
	assert.NoDirExists(t, f.output)
	assert.Empty(t, res.Files)
}

func TestRun_EndpointEscapingOutputIsRejected(t *testing.T) {
	f := newFixture(t, nil, site.NewStaticResource("ESCAPE", "/../escaped.html", filepath.Join(t.TempDir(), "x.html")))

	res, err := f.generator().Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NotNil(t, res.Failed)
	assert.Equal(t, StateValidating, res.Failed.State)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(f.output), "escaped.html"))
}

func TestRun_AbortsRemainingStates(t *testing.T) {
	f := newFixture(t, nil)
	enDir := filepath.Join(t.TempDir(), "en")
	writeFile(t, filepath.Join(enDir, "start.html"), `<a href="{{ url_for "MISSING" }}">x</a>`)
	f.site.Languages.Translations = []site.Translation{{Tag: "en", TemplateDir: enDir}}
	manifestPath := filepath.Join(t.TempDir(), "site.manifest")

	res, err := f.generator(WithManifest(manifestPath)).Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryReference))
	lang, ok := errors.ContextString(err, "language_tag")
	require.True(t, ok)
	assert.Equal(t, "en", lang)

	require.NotNil(t, res.Failed)
	assert.Equal(t, Step{State: StateRenderingLanguage, Index: 1, LanguageTag: "en"}, *res.Failed)
	assert.Equal(t, "rendering_language[1] (en)", res.FailedState())

	// The default pass completed before the failure and its output stays.
	assert.FileExists(t, filepath.Join(f.output, "index.html"))
	assert.NoFileExists(t, manifestPath)
	assert.Empty(t, res.Manifest)
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := f.generator().Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryCanceled))
	assert.Equal(t, history.OutcomeCanceled, res.Outcome)
	assert.NoDirExists(t, f.output)
}

func TestRun_LinkVerification(t *testing.T) {
	f := newFixture(t, map[string]string{
		"broken.html": "{{/* id: \"BROKEN\", endpoint: \"/broken/\" */}}\n<a href=\"../nowhere/\">x</a>\n",
	})

	res, err := f.generator(WithLinkVerification(true)).Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, StateVerifyingLinks, res.Failed.State)
	// The page exists in both languages.
	assert.Len(t, res.BrokenLinks, 2)
}

func TestRun_LinkVerificationPasses(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.generator(WithLinkVerification(true)).Run(t.Context())
	require.NoError(t, err)
	assert.Empty(t, res.BrokenLinks)
}

func TestRun_RecordsHistoryAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := &recordingRecorder{}
	obs := &recordingObserver{}

	res, err := f.generator(WithHistory(store), WithRecorder(rec), WithObserver(obs)).Run(t.Context())
	require.NoError(t, err)

	runs, err := store.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, history.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, 3, runs[0].FileCount)
	assert.Equal(t, res.Manifest.Digest(), runs[0].ManifestDigest)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 2, rec.files["page"])
	assert.Equal(t, 1, rec.files["static"])
	assert.Equal(t, []string{"default", "en"}, rec.pageLanguages)

	assert.Equal(t, []string{
		"validating",
		"copying_resources",
		"rendering_language[0]",
		"rendering_language[1] (en)",
		"writing_manifest",
	}, obs.completed)
	assert.Equal(t, 1, obs.runs)
}

func TestRun_RecordsFailedRun(t *testing.T) {
	f := newFixture(t, nil, site.NewReferenceOnly("OTHER", "/"))
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = f.generator(WithHistory(store)).Run(t.Context())
	require.Error(t, err)

	runs, err := store.Recent(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.OutcomeFailed, runs[0].Outcome)
	assert.Equal(t, "validating", runs[0].FailedState)
	assert.NotEmpty(t, runs[0].Error)
}

func TestRun_MissingOutputRoot(t *testing.T) {
	f := newFixture(t, nil)
	res, err := New(f.site, "").Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, StateValidating, res.Failed.State)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "copying_resources", Step{State: StateCopyingResources}.String())
	assert.Equal(t, "rendering_language[0]", Step{State: StateRenderingLanguage}.String())
	assert.Equal(t, "rendering_language[2] (de)", Step{State: StateRenderingLanguage, Index: 2, LanguageTag: "de"}.String())
}

type recordingRecorder struct {
	mu            sync.Mutex
	outcomes      []metrics.BuildOutcomeLabel
	files         map[string]int
	pageLanguages []string
}

func (r *recordingRecorder) ObserveStageDuration(string, time.Duration) {}
func (r *recordingRecorder) IncStageResult(string, metrics.ResultLabel) {}
func (r *recordingRecorder) ObserveBuildDuration(time.Duration)         {}

func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) ObservePageDuration(lang string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageLanguages = append(r.pageLanguages, lang)
}

func (r *recordingRecorder) AddFilesWritten(kind string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.files == nil {
		r.files = map[string]int{}
	}
	r.files[kind] += n
}

type recordingObserver struct {
	NoopObserver
	completed []string
	runs      int
}

func (o *recordingObserver) OnStateComplete(s Step, _ time.Duration, _ error) {
	o.completed = append(o.completed, s.String())
}

func (o *recordingObserver) OnRunComplete(*Result) { o.runs++ }
