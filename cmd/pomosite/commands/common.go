// Package commands implements the pomosite command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pomosite/internal/config"
	"git.home.luguber.info/inful/pomosite/internal/generate"
	"git.home.luguber.info/inful/pomosite/internal/history"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/metrics"
	"git.home.luguber.info/inful/pomosite/internal/site"
	"git.home.luguber.info/inful/pomosite/internal/workspace"
)

// LogLevelEnv overrides the log level unless -v is given.
const LogLevelEnv = "POMOSITE_LOG_LEVEL"

// Global is shared state passed to every command.
type Global struct {
	Context context.Context
	// Out receives command output meant for the user; logs go to stderr.
	Out io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pomosite.yaml" env:"POMOSITE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Generate the site"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Discover DiscoverCmd `cmd:"" help:"List the items of the site without generating it"`
	Extract  ExtractCmd  `cmd:"" help:"Extract translatable text from the templates into a POT or pseudo PO file"`
	Check    CheckCmd    `cmd:"" help:"Validate the configuration and optionally the links of a generated site"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate the site whenever an input changes"`
	History  HistoryCmd  `cmd:"" help:"Show recent generation runs"`
}

// logLevel is adjustable after startup so the configured level can apply once the
// configuration is loaded.
var (
	logLevel   = new(slog.LevelVar)
	levelFixed bool
)

// AfterApply runs after flag parsing; setup logging once.
// Precedence: -v, then POMOSITE_LOG_LEVEL, then logging.level from the configuration.
func (c *CLI) AfterApply() error {
	levelFixed = false
	logLevel.Set(slog.LevelInfo)
	switch {
	case c.Verbose:
		logLevel.Set(slog.LevelDebug)
		levelFixed = true
	case os.Getenv(LogLevelEnv) != "":
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(LogLevelEnv)))); err == nil {
			logLevel.Set(l)
			levelFixed = true
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	return nil
}

// loadConfig loads the configuration and applies its log level.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if !levelFixed {
		logLevel.Set(cfg.LogLevel())
	}
	slog.Debug("Loaded configuration", logfields.Path(root.Config))
	return cfg, nil
}

// loadSite loads the configuration and assembles the site description.
func loadSite(root *CLI) (*config.Config, *site.Site, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, err
	}
	s, err := cfg.BuildSite()
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

// generatorSetup owns the resources a generator needs beyond the configuration.
type generatorSetup struct {
	generator *generate.Generator
	recorder  *metrics.PrometheusRecorder
	history   history.Store
	cfg       *config.Config
}

// overrides are command line values taking precedence over the configuration.
type overrides struct {
	output      string
	manifest    string
	noClean     bool
	verifyLinks bool
}

func newGenerator(cfg *config.Config, s *site.Site, ov overrides, withMetrics bool) (*generatorSetup, error) {
	if ov.output != "" {
		cfg.Output.Directory = ov.output
	}
	if ov.manifest != "" {
		cfg.Output.Manifest = ov.manifest
	}
	setup := &generatorSetup{cfg: cfg}

	opts := []generate.Option{
		generate.WithClean(cfg.Output.Clean && !ov.noClean),
		generate.WithManifest(cfg.Output.Manifest),
		generate.WithLinkVerification(cfg.Output.VerifyLinks || ov.verifyLinks),
	}
	if cfg.Build.WorkDir != "" {
		dir := cfg.Build.WorkDir
		opts = append(opts, generate.WithWorkspaceFactory(func() *workspace.Manager {
			return workspace.NewPersistentManager(dir)
		}))
	}
	if withMetrics || cfg.Build.MetricsFile != "" {
		setup.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, generate.WithRecorder(setup.recorder))
	}
	if cfg.Build.History != "" {
		store, err := history.NewSQLiteStore(cfg.Build.History)
		if err != nil {
			return nil, err
		}
		setup.history = store
		opts = append(opts, generate.WithHistory(store))
	}

	setup.generator = generate.New(s, cfg.Output.Directory, opts...)
	return setup, nil
}

// afterRun exports metrics after a run. Failures are logged; the run result stands.
func (g *generatorSetup) afterRun() {
	if g.recorder == nil || g.cfg.Build.MetricsFile == "" {
		return
	}
	if err := g.recorder.WriteTextfile(g.cfg.Build.MetricsFile); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(g.cfg.Build.MetricsFile), logfields.Error(err))
	}
}

func (g *generatorSetup) close() {
	if g.history == nil {
		return
	}
	if err := g.history.Close(); err != nil {
		slog.Warn("Failed to close history store", logfields.Error(err))
	}
}
