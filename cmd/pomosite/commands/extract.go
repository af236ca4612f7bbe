package commands

import (
	"fmt"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/translate"
)

// ExtractCmd implements the 'extract' command.
type ExtractCmd struct {
	Output string `arg:"" help:"POT file to write (PO file with --pseudo)"`
	Pseudo string `help:"Write a pseudo-localized catalog for this language tag instead of a template" placeholder:"TAG"`
}

func (e *ExtractCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Site.TemplateDir == "" {
		return errors.ConfigError("site.template_dir is required to extract messages").Build()
	}

	var n int
	if e.Pseudo != "" {
		n, err = translate.Pseudo(cfg.Site.TemplateDir, e.Output, e.Pseudo)
	} else {
		n, err = translate.Extract(cfg.Site.TemplateDir, e.Output)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Wrote %d message(s) to %s\n", n, e.Output)
	return nil
}
