package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/markdown"
	"git.home.luguber.info/inful/pomosite/internal/resolve"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

// Context variable names available to every page template.
const (
	VarPageID       = "page_id"
	VarPageEndpoint = "page_endpoint"
	VarLanguageTag  = "language_tag"
	VarLanguage     = "language"
	VarRootedURLs   = "rooted_urls"
)

// Environment renders pages from one template directory for one language pass.
// Parsed templates are cached in the environment and never shared with another one.
type Environment struct {
	dir         string
	languageTag string
	resolver    *resolve.Resolver
	onPage      PageHook

	set *template.Template
}

// NewEnvironment creates an environment for templateDir. languageTag is empty for the
// default language pass.
func NewEnvironment(templateDir, languageTag string, resolver *resolve.Resolver, opts ...Option) *Environment {
	e := &Environment{
		dir:         templateDir,
		languageTag: languageTag,
		resolver:    resolver,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the template directory.
func (e *Environment) Dir() string { return e.dir }

// LanguageTag returns the language pass tag, empty for the default language.
func (e *Environment) LanguageTag() string { return e.languageTag }

// RenderPage renders a template page and returns the output bytes.
func (e *Environment) RenderPage(item site.Item) ([]byte, error) {
	if item.Kind() != site.TemplatePage {
		return nil, errors.InternalError("item is not a template page").
			WithContext("page_id", item.ID()).
			WithContext("kind", item.Kind().String()).
			Build()
	}

	tmpl, err := e.lookup(item.Template())
	if err != nil {
		return nil, e.pageError(err, item)
	}

	// Clone so the bound functions of this page cannot leak into another one.
	page, err := tmpl.Clone()
	if err != nil {
		return nil, e.pageError(err, item)
	}
	page.Funcs(funcMap(e.resolver.Bind(resolve.ForPage(item, e.languageTag))))

	var buf bytes.Buffer
	if err := page.Execute(&buf, e.pageData(item)); err != nil {
		return nil, e.pageError(err, item)
	}
	return buf.Bytes(), nil
}

func (e *Environment) pageData(item site.Item) map[string]any {
	data := item.Fields()
	if data == nil {
		data = make(map[string]any, 5)
	}
	lang := e.languageTag
	if lang == "" {
		lang = e.resolver.DefaultLanguage()
	}
	data[VarPageID] = item.ID()
	data[VarPageEndpoint] = item.Endpoint()
	data[VarLanguageTag] = e.languageTag
	data[VarLanguage] = lang
	data[VarRootedURLs] = item.Rooted()
	return data
}

// pageError annotates err with the page and language. A failed url_for keeps its
// reference category so callers can tell broken links from broken templates.
func (e *Environment) pageError(err error, item site.Item) error {
	category := errors.CategoryRender
	if errors.HasCategory(err, errors.CategoryReference) {
		category = errors.CategoryReference
	}
	return errors.WrapError(err, category, "failed to render page").
		Fatal().
		WithContext("page_id", item.ID()).
		WithContext("language_tag", e.languageTag).
		WithContext("template", item.Template()).
		Build()
}

func (e *Environment) lookup(name string) (*template.Template, error) {
	if !validTemplateName(name) {
		return nil, errors.RenderError(fmt.Sprintf("invalid template name %q", name)).
			WithContext("template_dir", e.dir).
			Build()
	}
	if err := e.load(name); err != nil {
		return nil, err
	}
	return e.set.Lookup(name), nil
}

// load parses the named template file into the environment's set, followed by every
// file it includes with {{template "name"}}. Other files of the directory are never
// read, so data files or binaries next to the templates do not break a pass.
// An include without a file is left to fail at execution unless a {{define}} provides it.
func (e *Environment) load(name string) error {
	if e.set == nil {
		e.set = template.New("").Funcs(funcMap(resolve.Bindings{}))
	}
	if e.set.Lookup(name) != nil {
		return nil
	}

	path := filepath.Join(e.dir, name)
	// #nosec G304 -- name is a plain file name inside the template directory.
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.RenderError(fmt.Sprintf("template %q not found", name)).
				WithContext("template_dir", e.dir).
				WithCause(err).
				Build()
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "read template").
			Fatal().
			WithContext("path", path).
			Build()
	}
	tmpl, err := e.set.New(name).Parse(string(src))
	if err != nil {
		return errors.WrapError(err, errors.CategoryRender, "parse template").
			Fatal().
			WithContext("template", name).
			Build()
	}

	for _, t := range tmpl.Templates() {
		if t.Tree == nil {
			continue
		}
		for _, inc := range includes(t.Tree.Root) {
			if e.set.Lookup(inc) != nil || !validTemplateName(inc) {
				continue
			}
			if _, err := os.Stat(filepath.Join(e.dir, inc)); err != nil {
				continue
			}
			if err := e.load(inc); err != nil {
				return err
			}
		}
	}
	return nil
}

// includes returns the template names invoked below n.
func includes(n parse.Node) []string {
	var names []string
	var walk func(parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.TemplateNode:
			names = append(names, n.Name)
		case *parse.IfNode:
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.List)
			walk(n.ElseList)
		}
	}
	walk(n)
	return names
}

func validTemplateName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func funcMap(b resolve.Bindings) template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["url_for"] = b.URLFor
	funcs["url_for_rooted"] = b.URLForRooted
	funcs["url_for_language"] = b.URLForLanguage
	funcs["markdown"] = markdown.Default.ToHTML
	return funcs
}
