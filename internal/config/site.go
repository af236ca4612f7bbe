package config

import (
	"log/slog"
	"maps"
	"slices"

	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/resources"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

// BuildSite assembles the site description: explicit items first, then pages discovered
// from template headers, then resources. Resource ids are generated from the registry
// size, so the order keeps them stable between runs.
func (c *Config) BuildSite() (*site.Site, error) {
	reg, err := site.NewRegistry()
	if err != nil {
		return nil, err
	}

	for _, id := range slices.Sorted(maps.Keys(c.Items)) {
		item, err := site.FromFields(id, c.Items[id])
		if err != nil {
			return nil, err
		}
		if err := reg.Add(item); err != nil {
			return nil, err
		}
	}

	if c.Site.TemplateDir != "" {
		if err := site.DiscoverTemplates(c.Site.TemplateDir, reg); err != nil {
			return nil, err
		}
	}

	if c.Site.ResourcesDir != "" {
		n, err := resources.Discover(c.Site.ResourcesDir, reg)
		if err != nil {
			return nil, err
		}
		slog.Debug("Discovered resources", logfields.Path(c.Site.ResourcesDir), logfields.Count(n))
	}

	langs := site.Languages{Default: c.Site.DefaultLanguage}
	for _, l := range c.Languages {
		langs.Translations = append(langs.Translations, site.Translation{
			Tag:         l.Tag,
			CatalogPath: l.Catalog,
			TemplateDir: l.TemplateDir,
		})
	}

	return &site.Site{
		TemplateDir: c.Site.TemplateDir,
		Items:       reg,
		Languages:   langs,
	}, nil
}

// LogLevel returns the configured level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
