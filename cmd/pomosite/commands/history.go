package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	ID    string `arg:"" optional:"" help:"Show a single run by id"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.Build.History == "" {
		return errors.ConfigError("build.history is not configured").Build()
	}
	store, err := history.NewSQLiteStore(cfg.Build.History)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var runs []history.Run
	if h.ID != "" {
		run, err := store.Get(g.ctx(), h.ID)
		if err != nil {
			return err
		}
		runs = []history.Run{run}
	} else {
		runs, err = store.Recent(g.ctx(), h.Limit)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tOUTCOME\tFILES\tFAILED STATE\tMANIFEST")
	for _, r := range runs {
		digest := r.ManifestDigest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Duration().Round(time.Millisecond),
			r.Outcome, r.FileCount, dash(r.FailedState), dash(digest))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
