// Package resolve turns item ids into URLs for the page being rendered.
//
// Every call receives the rendering PageContext explicitly, so a lookup made while one
// page renders can only ever see that page's endpoint and language.
package resolve

import (
	"fmt"

	"git.home.luguber.info/inful/pomosite/internal/endpoint"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

// PageContext identifies the page being rendered and the language pass it belongs to.
type PageContext struct {
	PageID string
	// Endpoint is the page's raw, non-localized endpoint.
	Endpoint string
	// LanguageTag is empty for the default language.
	LanguageTag string
	// Rooted makes every url_for on the page return an absolute path.
	Rooted bool
}

// ForPage builds the context for rendering item in the given language pass.
func ForPage(item site.Item, languageTag string) PageContext {
	return PageContext{
		PageID:      item.ID(),
		Endpoint:    item.Endpoint(),
		LanguageTag: languageTag,
		Rooted:      item.Rooted(),
	}
}

// LocalizedEndpoint is the page's endpoint in its own language.
func (c PageContext) LocalizedEndpoint() string {
	return endpoint.Localize(c.Endpoint, c.LanguageTag)
}

// Resolver resolves references against a read-only registry.
type Resolver struct {
	items     *site.Registry
	languages site.Languages
}

// New creates a resolver. The registry must not change while the resolver is in use.
func New(items *site.Registry, languages site.Languages) *Resolver {
	return &Resolver{items: items, languages: languages}
}

// URLFor returns the URL of item targetID as seen from the page in ctx. Template pages
// are localized to the page's language; static and reference-only items are not.
// The URL is absolute when rooted is set or the page asks for rooted URLs, relative
// otherwise. An unknown id is an invalid reference error.
func (r *Resolver) URLFor(ctx PageContext, targetID string, rooted bool) (string, error) {
	target, ok := r.items.Get(targetID)
	if !ok {
		return "", errors.ReferenceError(fmt.Sprintf("invalid page id %q", targetID)).
			WithContext("target_id", targetID).
			Build()
	}

	to := target.Endpoint()
	if target.IsLocalized() {
		to = endpoint.Localize(to, ctx.LanguageTag)
	}

	if rooted || ctx.Rooted {
		return to, nil
	}
	return endpoint.RelativeURL(ctx.LocalizedEndpoint(), to), nil
}

// URLForLanguage returns the relative URL of the same page in another language. The
// default language and languages without a configured translation map to the
// untagged page.
func (r *Resolver) URLForLanguage(ctx PageContext, targetTag string) string {
	to := endpoint.Localize(ctx.Endpoint, r.languages.PathTag(targetTag))
	return endpoint.RelativeURL(ctx.LocalizedEndpoint(), to)
}

// Bindings are the template functions of one page.
type Bindings struct {
	resolver *Resolver
	ctx      PageContext
}

// Bind fixes the page context for template calls. The returned value is immutable.
func (r *Resolver) Bind(ctx PageContext) Bindings {
	return Bindings{resolver: r, ctx: ctx}
}

// URLFor is the url_for template function.
func (b Bindings) URLFor(targetID string) (string, error) {
	return b.resolver.URLFor(b.ctx, targetID, false)
}

// URLForRooted is the url_for_rooted template function.
func (b Bindings) URLForRooted(targetID string) (string, error) {
	return b.resolver.URLFor(b.ctx, targetID, true)
}

// URLForLanguage is the url_for_language template function.
func (b Bindings) URLForLanguage(targetTag string) string {
	return b.resolver.URLForLanguage(b.ctx, targetTag)
}

// Context returns the page context the bindings were created for.
func (b Bindings) Context() PageContext {
	return b.ctx
}

// DefaultLanguage returns the configured default language tag.
func (r *Resolver) DefaultLanguage() string {
	return r.languages.Default
}
