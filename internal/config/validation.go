package config

import (
	"errors"
	"fmt"
	"log/slog"
)

// validateConfig checks the file-level structure. Item and language semantics
// (endpoint grammar, uniqueness, language tags) are checked by site validation when a
// run starts.
func validateConfig(cfg *Config) error {
	if cfg.Site.TemplateDir == "" && len(cfg.Items) == 0 && cfg.Site.ResourcesDir == "" {
		return errors.New("site: at least one of template_dir, resources_dir or items is required")
	}

	for i, l := range cfg.Languages {
		if l.Tag == "" {
			return fmt.Errorf("languages[%d]: tag is required", i)
		}
		switch {
		case l.Catalog == "" && l.TemplateDir == "":
			return fmt.Errorf("languages[%d] (%s): one of catalog or template_dir is required", i, l.Tag)
		case l.Catalog != "" && l.TemplateDir != "":
			return fmt.Errorf("languages[%d] (%s): catalog and template_dir are mutually exclusive", i, l.Tag)
		case l.Catalog != "" && cfg.Site.TemplateDir == "":
			return fmt.Errorf("languages[%d] (%s): a catalog requires site.template_dir", i, l.Tag)
		}
	}

	for id, item := range cfg.Items {
		if _, ok := item["id"]; ok {
			return fmt.Errorf("items.%s: the id is the map key and must not be repeated as a field", id)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
