package site

import (
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/pomosite/internal/endpoint"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// Registry maps item ids to items.
type Registry struct {
	items map[string]Item
}

// NewRegistry creates a registry holding the given items. Duplicate ids are rejected.
func NewRegistry(items ...Item) (*Registry, error) {
	r := &Registry{items: make(map[string]Item, len(items))}
	for _, it := range items {
		if err := r.Add(it); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add inserts an item. Item ids are unique.
func (r *Registry) Add(it Item) error {
	if r.items == nil {
		r.items = make(map[string]Item)
	}
	if it.ID() == "" {
		return errors.ConfigError("item id is empty").
			WithContext("endpoint", it.Endpoint()).
			Build()
	}
	if _, exists := r.items[it.ID()]; exists {
		return errors.ConfigError("an item with the same id already exists").
			WithContext("item_id", it.ID()).
			Build()
	}
	r.items[it.ID()] = it
	return nil
}

// Get looks up an item by id.
func (r *Registry) Get(id string) (Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Len returns the number of items.
func (r *Registry) Len() int { return len(r.items) }

// IDs returns all item ids in sorted order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.items))
}

// Items returns all items sorted by id.
func (r *Registry) Items() []Item {
	ids := r.IDs()
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id])
	}
	return out
}

// OfKind returns the items of one kind, sorted by id.
func (r *Registry) OfKind(k Kind) []Item {
	var out []Item
	for _, it := range r.Items() {
		if it.Kind() == k {
			out = append(out, it)
		}
	}
	return out
}

// Validate checks every item for a well-formed endpoint and raw endpoint uniqueness
// across all kinds, and that template pages have a template directory to load from.
// The first problem found is returned as a configuration error naming the item.
// The template/source exclusivity is enforced earlier, by the item constructors.
func (r *Registry) Validate(templateDir string) error {
	seen := make(map[string]string, len(r.items))
	for _, it := range r.Items() {
		if it.Endpoint() == "" {
			return errors.ConfigError("item is missing the endpoint attribute").
				WithContext("item_id", it.ID()).
				Build()
		}
		if !endpoint.Valid(it.Endpoint()) {
			return errors.ConfigError(fmt.Sprintf("invalid endpoint %q", it.Endpoint())).
				WithContext("item_id", it.ID()).
				Build()
		}
		if other, dup := seen[it.Endpoint()]; dup {
			return errors.ConfigError(fmt.Sprintf("duplicate endpoint %s", it.Endpoint())).
				WithContext("item_id", it.ID()).
				WithContext("conflicts_with", other).
				Build()
		}
		seen[it.Endpoint()] = it.ID()

		if it.Kind() == TemplatePage && templateDir == "" {
			return errors.ConfigError("template directory is missing in the site configuration").
				WithContext("item_id", it.ID()).
				Build()
		}
	}
	return nil
}
