package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/pomosite/internal/site"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Kind string `help:"Only list items of this kind" enum:"all,template,static,reference" default:"all"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	_, s, err := loadSite(root)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tENDPOINT\tINPUT")
	n := 0
	for _, it := range s.Items.Items() {
		if d.Kind != "all" && it.Kind().String() != d.Kind {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID(), it.Kind(), it.Endpoint(), input(it))
		n++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%d item(s), languages: %v\n", n, s.Languages.Tags())
	return nil
}

func input(it site.Item) string {
	switch it.Kind() {
	case site.TemplatePage:
		return it.Template()
	case site.StaticResource:
		return it.Source()
	default:
		return "-"
	}
}
