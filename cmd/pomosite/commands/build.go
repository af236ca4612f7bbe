package commands

import (
	"fmt"
	"time"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory, overrides output.directory"`
	Manifest    string `help:"Manifest path, overrides output.manifest"`
	NoClean     bool   `name:"no-clean" help:"Keep existing output even if output.clean is set"`
	VerifyLinks bool   `name:"verify-links" help:"Fail when generated pages contain broken relative links"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, s, err := loadSite(root)
	if err != nil {
		return err
	}
	setup, err := newGenerator(cfg, s, overrides{
		output:      b.Output,
		manifest:    b.Manifest,
		noClean:     b.NoClean,
		verifyLinks: b.VerifyLinks,
	}, false)
	if err != nil {
		return err
	}
	defer setup.close()

	res, err := setup.generator.Run(g.ctx())
	setup.afterRun()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.out(), "Generated %d files in %s (%s)\n", len(res.Files), res.OutputRoot, res.Duration().Round(time.Millisecond))
	return nil
}
