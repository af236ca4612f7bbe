package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/config"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/metrics"
	"git.home.luguber.info/inful/pomosite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string        `short:"o" help:"Output directory, overrides output.directory"`
	Debounce    time.Duration `help:"Quiet period before regenerating, overrides watch.debounce"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9464"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, s, err := loadSite(root)
	if err != nil {
		return err
	}
	addr := cfg.Watch.MetricsAddr
	if w.MetricsAddr != "" {
		addr = w.MetricsAddr
	}

	setup, err := newGenerator(cfg, s, overrides{output: w.Output}, addr != "")
	if err != nil {
		return err
	}
	defer setup.close()

	ctx := g.ctx()
	if addr != "" {
		stop, err := serveMetrics(ctx, addr, setup.recorder)
		if err != nil {
			return err
		}
		defer stop()
	}

	debounce := cfg.Watch.Debounce.Std()
	if w.Debounce > 0 {
		debounce = w.Debounce
	}

	watcher := watch.New(watchPaths(cfg), func(ctx context.Context) error {
		_, err := setup.generator.Run(ctx)
		setup.afterRun()
		return err
	},
		watch.WithDebounce(debounce),
		watch.WithIgnore(cfg.Output.Directory, cfg.Output.Manifest, cfg.Build.WorkDir, cfg.Build.History, cfg.Build.MetricsFile),
	)
	return watcher.Run(ctx)
}

// watchPaths lists every input of the site.
func watchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Site.TemplateDir, cfg.Site.ResourcesDir}
	for _, l := range cfg.Languages {
		paths = append(paths, l.Catalog, l.TemplateDir)
	}
	for _, item := range cfg.Items {
		if src, ok := item["source"].(string); ok {
			paths = append(paths, src)
		}
	}
	return paths
}

// serveMetrics serves the recorder's registry until the returned stop function is called.
func serveMetrics(ctx context.Context, addr string, rec *metrics.PrometheusRecorder) (func(), error) {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(rec.Registry()))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}, nil
}
