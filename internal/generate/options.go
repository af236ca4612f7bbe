package generate

import (
	"git.home.luguber.info/inful/pomosite/internal/history"
	"git.home.luguber.info/inful/pomosite/internal/metrics"
	"git.home.luguber.info/inful/pomosite/internal/workspace"
)

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithObserver adds an observer of state transitions.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.observers = append(g.observers, o)
	}
}

// WithWorkspaceFactory sets how the scratch area for translated templates is created.
func WithWorkspaceFactory(factory func() *workspace.Manager) Option {
	return func(g *Generator) {
		g.workspaceFactory = factory
	}
}

// WithClean removes the output directory before anything is written.
func WithClean(clean bool) Option {
	return func(g *Generator) {
		g.clean = clean
	}
}

// WithManifest writes a manifest of the generated files to path after a successful run.
func WithManifest(path string) Option {
	return func(g *Generator) {
		g.manifestPath = path
	}
}

// WithLinkVerification checks the links of the generated HTML after rendering. Broken
// links fail the run.
func WithLinkVerification(verify bool) Option {
	return func(g *Generator) {
		g.verifyLinks = verify
	}
}

// WithHistory records every run, successful or not, in store.
func WithHistory(store history.Store) Option {
	return func(g *Generator) {
		g.history = store
	}
}
