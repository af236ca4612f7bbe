package commands

import (
	"fmt"

	"git.home.luguber.info/inful/pomosite/internal/linkverify"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Links  bool   `help:"Also verify the links of the generated site in the output directory"`
	Output string `short:"o" help:"Output directory to verify, overrides output.directory"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, s, err := loadSite(root)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Configuration OK: %d item(s), %d language(s)\n",
		s.Items.Len(), len(s.Languages.Tags()))

	if !c.Links {
		return nil
	}
	out := cfg.Output.Directory
	if c.Output != "" {
		out = c.Output
	}
	broken, err := linkverify.VerifyOutput(out)
	if err != nil {
		return err
	}
	for _, b := range broken {
		_, _ = fmt.Fprintln(g.out(), b)
	}
	if err := linkverify.BrokenLinksError(out, broken); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), "Links OK")
	return nil
}
