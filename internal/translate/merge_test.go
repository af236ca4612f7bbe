package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const startTemplate = `{{/* id: "START", endpoint: "/" */}}
<html lang="sv">
<head><title>Välkommen</title>
<meta name="description" content="En sida">
<style>p { color: red }</style>
<script>var s = "Hej";</script></head>
<body>
  <p>Hej världen</p>
  <a href="{{ url_for "OM-OSS" }}">Om oss</a>
  <img src="lim.jpeg" alt="Lim">
  <p>{{ .greeting }}</p>
  <p>Fisk &amp; pommes</p>
</body>
</html>
`

var startCatalog = MapCatalog{
	"Välkommen":     "Welcome",
	"En sida":       "A page",
	"Hej världen":   "Hello world",
	"Om oss":        "About us",
	"Lim":           "Glue",
	"Fisk & pommes": "Fish & chips",
	"Hej":           "Hi",
}

func TestMerge(t *testing.T) {
	want := strings.NewReplacer(
		"<title>Välkommen<", "<title>Welcome<",
		`content="En sida"`, `content="A page"`,
		">Hej världen<", ">Hello world<",
		">Om oss<", ">About us<",
		`alt="Lim"`, `alt="Glue"`,
		"Fisk &amp; pommes", "Fish &amp; chips",
	).Replace(startTemplate)

	got := Merge([]byte(startTemplate), startCatalog)
	assert.Equal(t, want, string(got))
	assert.Contains(t, string(got), `<script>var s = "Hej";</script>`)
	assert.Contains(t, string(got), `{{ url_for "OM-OSS" }}`)
	assert.True(t, strings.HasPrefix(string(got), `{{/* id: "START", endpoint: "/" */}}`+"\n"))
}

func TestMerge_NoTranslationsIsIdentity(t *testing.T) {
	inputs := []string{
		startTemplate,
		"",
		"plain text only",
		"<p>unclosed <b>tags",
		"<!DOCTYPE html><!-- comment --><p class=x>a</p>",
		`<a title='single'>{{ if .x }}Ja{{ else }}Nej{{ end }}</a>`,
	}
	for _, in := range inputs {
		assert.Equal(t, in, string(Merge([]byte(in), MapCatalog{})), in)
	}
}

func TestMerge_ActionsSplitUnits(t *testing.T) {
	src := `<p>  {{ if .x }}Ja{{ else }} Nej {{ end }}</p>`
	got := Merge([]byte(src), MapCatalog{"Ja": "Yes", "Nej": "No"})
	assert.Equal(t, `<p>  {{ if .x }}Yes{{ else }} No {{ end }}</p>`, string(got))
}

func TestMerge_AttributeEscapingAndQuotes(t *testing.T) {
	src := `<img alt='Bild' title="Titel"><input placeholder="Sök">`
	got := Merge([]byte(src), MapCatalog{"Bild": `It's "here"`, "Titel": "A < B", "Sök": "Search"})
	assert.Equal(t, `<img alt='It&#39;s &#34;here&#34;' title="A &lt; B"><input placeholder="Search">`, string(got))
}

func TestMerge_OnlyMetaDescriptionContent(t *testing.T) {
	src := `<meta name="keywords" content="Nyckel"><meta content="Beskrivning" name="Description">`
	got := Merge([]byte(src), MapCatalog{"Nyckel": "Key", "Beskrivning": "Description"})
	assert.Equal(t, `<meta name="keywords" content="Nyckel"><meta content="Description" name="Description">`, string(got))
}

func TestMerge_WhitespaceNormalizedMsgID(t *testing.T) {
	src := "<p>\n    Hej\n    världen\n</p>"
	got := Merge([]byte(src), MapCatalog{"Hej världen": "Hello world"})
	assert.Equal(t, "<p>\n    Hello world\n</p>", string(got))
}

func TestUnits(t *testing.T) {
	units := Units([]byte(startTemplate))
	assert.Equal(t, []Unit{
		{MsgID: "Välkommen", Line: 3},
		{MsgID: "En sida", Line: 4},
		{MsgID: "Hej världen", Line: 8},
		{MsgID: "Om oss", Line: 9},
		{MsgID: "Lim", Line: 10},
		{MsgID: "Fisk & pommes", Line: 12},
	}, units)
}

func TestUnits_SkipsNonText(t *testing.T) {
	units := Units([]byte(`<p>{{ .x }}</p><p> 42 </p><p>&nbsp;</p><p>-</p>`))
	assert.Empty(t, units)
}

func TestMerge_AttributeSpellings(t *testing.T) {
	cat := MapCatalog{"Fisk & pommes": "Fish & chips", "Lim": "Glue", "Bild": "Picture"}
	tests := map[string]string{
		`<img alt="Fisk &amp; pommes">`:               `<img alt="Fish &amp; chips">`,
		`<IMG ALT="Lim">`:                             `<IMG ALT="Glue">`,
		`<img alt = "Lim" src=x.png>`:                 `<img alt = "Glue" src=x.png>`,
		`<img alt=Bild>`:                              `<img alt="Picture">`,
		`<img src="{{ url_for "LIM" }}" title="Lim">`: `<img src="{{ url_for "LIM" }}" title="Glue">`,
	}
	for in, want := range tests {
		assert.Equal(t, want, string(Merge([]byte(in), cat)), in)
	}
}

func TestMerge_KeepsTagCase(t *testing.T) {
	src := `<A HREF="{{ url_for "OM-OSS" }}" Class="Nav">Om oss</A>`
	got := Merge([]byte(src), MapCatalog{"Om oss": "About us"})
	assert.Equal(t, `<A HREF="{{ url_for "OM-OSS" }}" Class="Nav">About us</A>`, string(got))
}
