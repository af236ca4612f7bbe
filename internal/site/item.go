package site

import (
	"fmt"
	"maps"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// Kind distinguishes the three item variants.
type Kind int

const (
	ReferenceOnly Kind = iota
	TemplatePage
	StaticResource
)

func (k Kind) String() string {
	switch k {
	case TemplatePage:
		return "template"
	case StaticResource:
		return "static"
	default:
		return "reference"
	}
}

// Reserved field names with a meaning to the generator. Everything else is passed to
// templates untouched.
const (
	FieldID         = "id"
	FieldEndpoint   = "endpoint"
	FieldTemplate   = "template"
	FieldSource     = "source"
	FieldRooted     = "rooted"
	FieldRootedURLs = "rooted-urls"
)

// Item is an immutable item descriptor. Use the constructors; the zero value is a
// reference-only item without an endpoint.
type Item struct {
	id       string
	endpoint string
	kind     Kind
	template string
	source   string
	rooted   bool
	fields   map[string]any
}

// NewTemplatePage creates a dynamic item rendered from template. fields are extra
// template context variables.
func NewTemplatePage(id, endpoint, template string, rooted bool, fields map[string]any) Item {
	return Item{
		id:       id,
		endpoint: endpoint,
		kind:     TemplatePage,
		template: template,
		rooted:   rooted,
		fields:   maps.Clone(fields),
	}
}

// NewStaticResource creates an item whose output is a verbatim copy of source.
func NewStaticResource(id, endpoint, source string) Item {
	return Item{id: id, endpoint: endpoint, kind: StaticResource, source: source}
}

// NewReferenceOnly creates an item that can be referenced but is never generated.
func NewReferenceOnly(id, endpoint string) Item {
	return Item{id: id, endpoint: endpoint, kind: ReferenceOnly}
}

// FromFields builds an item from a loosely typed field map, as found in page-config
// headers and YAML configuration. Having both a template and a source is a
// configuration error. A missing endpoint is left for Registry.Validate to report.
func FromFields(id string, fields map[string]any) (Item, error) {
	endpoint, err := stringField(id, fields, FieldEndpoint)
	if err != nil {
		return Item{}, err
	}
	template, err := stringField(id, fields, FieldTemplate)
	if err != nil {
		return Item{}, err
	}
	source, err := stringField(id, fields, FieldSource)
	if err != nil {
		return Item{}, err
	}

	if template != "" && source != "" {
		return Item{}, errors.ConfigError("item has both 'template' and 'source' attributes; it may only have one").
			WithContext("item_id", id).
			Build()
	}

	switch {
	case template != "":
		rooted := boolField(fields, FieldRootedURLs) || boolField(fields, FieldRooted)
		return NewTemplatePage(id, endpoint, template, rooted, fields), nil
	case source != "":
		item := NewStaticResource(id, endpoint, source)
		item.fields = maps.Clone(fields)
		return item, nil
	default:
		item := NewReferenceOnly(id, endpoint)
		item.fields = maps.Clone(fields)
		return item, nil
	}
}

func stringField(id string, fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.ConfigError(fmt.Sprintf("attribute %q must be a string", key)).
			WithContext("item_id", id).
			WithContext("value", raw).
			Build()
	}
	return s, nil
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func (i Item) ID() string       { return i.id }
func (i Item) Endpoint() string { return i.endpoint }
func (i Item) Kind() Kind       { return i.kind }
func (i Item) Template() string { return i.template }
func (i Item) Source() string   { return i.source }
func (i Item) Rooted() bool     { return i.rooted }

// IsLocalized reports whether references to the item carry the language segment.
// Only rendered pages exist once per language.
func (i Item) IsLocalized() bool { return i.kind == TemplatePage }

// Fields returns a copy of the item's raw fields.
func (i Item) Fields() map[string]any {
	return maps.Clone(i.fields)
}
