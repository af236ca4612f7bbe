package site

import "git.home.luguber.info/inful/pomosite/internal/foundation/errors"

// Site is everything a generation run needs to know about its inputs.
type Site struct {
	// TemplateDir holds the default-language page templates.
	TemplateDir string
	Items       *Registry
	Languages   Languages
}

// Validate checks the registry and the language configuration. It performs no I/O.
func (s *Site) Validate() error {
	if s.Items == nil {
		return errors.ConfigError("item configuration is missing").Build()
	}
	if err := s.Items.Validate(s.TemplateDir); err != nil {
		return err
	}
	return s.Languages.Validate()
}
