package site

import (
	"fmt"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pomosite/internal/endpoint"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// Translation configures one additional language. Exactly one of CatalogPath and
// TemplateDir is expected: a PO catalog merged into the default templates, or a
// directory of already translated templates.
type Translation struct {
	Tag         string
	CatalogPath string
	TemplateDir string
}

// Languages is the ordered language configuration of a site. The default language is
// rendered first without a path segment; translations follow in order.
type Languages struct {
	Default      string
	Translations []Translation
}

// IsTranslation reports whether tag names a configured additional language.
func (l Languages) IsTranslation(tag string) bool {
	for _, tr := range l.Translations {
		if tr.Tag == tag {
			return true
		}
	}
	return false
}

// PathTag maps a requested language to the tag used in endpoints: the default
// language and unknown languages map to the untagged form.
func (l Languages) PathTag(tag string) string {
	if tag == "" || tag == l.Default || !l.IsTranslation(tag) {
		return ""
	}
	return tag
}

// Tags returns the language tags in pass order. The default language is reported as
// its configured tag, which may be empty.
func (l Languages) Tags() []string {
	tags := make([]string, 0, len(l.Translations)+1)
	tags = append(tags, l.Default)
	for _, tr := range l.Translations {
		tags = append(tags, tr.Tag)
	}
	return tags
}

// Validate checks that every tag is a BCP 47 tag usable as an endpoint segment and
// that translation tags are unique and distinct from the default.
func (l Languages) Validate() error {
	if l.Default != "" {
		if _, err := language.Parse(l.Default); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid default language %q", l.Default)).
				Fatal().
				Build()
		}
	}

	seen := map[string]bool{}
	for _, tr := range l.Translations {
		if tr.Tag == "" {
			return errors.ConfigError("translation is missing its language tag").Build()
		}
		if _, err := language.Parse(tr.Tag); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid language tag %q", tr.Tag)).
				Fatal().
				Build()
		}
		if !endpoint.Valid("/" + tr.Tag) {
			return errors.ConfigError(fmt.Sprintf("language tag %q cannot be used as a path segment", tr.Tag)).Build()
		}
		if tr.Tag == l.Default {
			return errors.ConfigError(fmt.Sprintf("language %q is both default and translation", tr.Tag)).Build()
		}
		if seen[tr.Tag] {
			return errors.ConfigError(fmt.Sprintf("duplicate language %q", tr.Tag)).Build()
		}
		seen[tr.Tag] = true

		if (tr.CatalogPath == "") == (tr.TemplateDir == "") {
			return errors.ConfigError("translation needs exactly one of a catalog or a translated template directory").
				WithContext("language_tag", tr.Tag).
				Build()
		}
	}
	return nil
}
