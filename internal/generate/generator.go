package generate

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/history"
	"git.home.luguber.info/inful/pomosite/internal/linkverify"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/manifest"
	"git.home.luguber.info/inful/pomosite/internal/metrics"
	"git.home.luguber.info/inful/pomosite/internal/observability"
	"git.home.luguber.info/inful/pomosite/internal/render"
	"git.home.luguber.info/inful/pomosite/internal/resolve"
	"git.home.luguber.info/inful/pomosite/internal/resources"
	"git.home.luguber.info/inful/pomosite/internal/site"
	"git.home.luguber.info/inful/pomosite/internal/translate"
	"git.home.luguber.info/inful/pomosite/internal/workspace"
)

// Generator generates a site into an output directory. A Generator may run any number
// of times; runs share nothing but the configuration.
type Generator struct {
	site       *site.Site
	outputRoot string

	recorder         metrics.Recorder
	observers        []Observer
	workspaceFactory func() *workspace.Manager
	clean            bool
	manifestPath     string
	verifyLinks      bool
	history          history.Store
}

// New creates a generator for s writing to outputRoot.
func New(s *site.Site, outputRoot string, opts ...Option) *Generator {
	g := &Generator{
		site:       s,
		outputRoot: outputRoot,
		recorder:   metrics.NoopRecorder{},
		workspaceFactory: func() *workspace.Manager {
			return workspace.NewManager("")
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// run is the state of one generation run.
type run struct {
	*Generator
	ctx       context.Context
	res       *Result
	resolver  *resolve.Resolver
	workspace *workspace.Manager
}

// Run executes a complete generation. The returned result is never nil; on failure it
// names the failed step and lists the files written before the failure.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:      history.NewRunID(),
		OutputRoot: g.outputRoot,
		Start:      time.Now(),
	}
	ctx = observability.WithRunID(ctx, res.RunID)
	observability.InfoContext(ctx, "Starting generation", logfields.Output(g.outputRoot))

	r := &run{Generator: g, ctx: ctx, res: res}
	err := r.execute()
	if r.workspace != nil {
		if cerr := r.workspace.Cleanup(); cerr != nil {
			observability.WarnContext(ctx, "Failed to clean up workspace", logfields.Error(cerr))
		}
	}

	res.End = time.Now()
	switch {
	case err == nil:
		res.Outcome = history.OutcomeSuccess
		observability.InfoContext(ctx, "Generation complete",
			logfields.Count(len(res.Files)),
			logfields.DurationMS(float64(res.Duration().Milliseconds())))
	case isCanceled(err):
		res.Outcome = history.OutcomeCanceled
		observability.WarnContext(ctx, "Generation canceled", slog.String("state", res.FailedState()))
	default:
		res.Outcome = history.OutcomeFailed
		observability.ErrorContext(ctx, "Generation failed", slog.String("state", res.FailedState()), logfields.Error(err))
	}

	for _, o := range g.allObservers() {
		o.OnRunComplete(res)
	}
	g.record(ctx, res, err)
	return res, err
}

func (g *Generator) allObservers() []Observer {
	return append([]Observer{recorderObserver{rec: g.recorder}}, g.observers...)
}

func (g *Generator) record(ctx context.Context, res *Result, runErr error) {
	if g.history == nil {
		return
	}
	if err := g.history.Record(context.WithoutCancel(ctx), res.Run(runErr)); err != nil {
		observability.WarnContext(ctx, "Failed to record run history", logfields.Error(err))
	}
}

func (r *run) execute() error {
	if err := r.step(Step{State: StateValidating}, r.validate); err != nil {
		return err
	}
	r.resolver = resolve.New(r.site.Items, r.site.Languages)

	if err := r.step(Step{State: StateCopyingResources}, r.copyResources); err != nil {
		return err
	}

	if err := r.step(Step{State: StateRenderingLanguage}, func(ctx context.Context) error {
		return r.renderLanguage(ctx, r.site.TemplateDir, "")
	}); err != nil {
		return err
	}
	for i, tr := range r.site.Languages.Translations {
		s := Step{State: StateRenderingLanguage, Index: i + 1, LanguageTag: tr.Tag}
		if err := r.step(s, func(ctx context.Context) error {
			return r.translateAndRender(ctx, tr)
		}); err != nil {
			return err
		}
	}

	if r.verifyLinks {
		if err := r.step(Step{State: StateVerifyingLinks}, r.verify); err != nil {
			return err
		}
	}

	if err := r.step(Step{State: StateWritingManifest}, r.writeManifest); err != nil {
		return err
	}

	observability.DebugContext(observability.WithStage(r.ctx, string(StateDone)), "Reached final state")
	return nil
}

// step runs one state. Cancellation is checked before the state starts.
func (r *run) step(s Step, fn func(ctx context.Context) error) error {
	ctx := observability.WithStage(r.ctx, string(s.State))
	if s.State == StateRenderingLanguage {
		ctx = observability.WithLanguage(ctx, s.LanguageTag)
	}
	observers := r.allObservers()

	for _, o := range observers {
		o.OnStateStart(s)
	}
	observability.DebugContext(ctx, "Entering state")

	start := time.Now()
	err := ctx.Err()
	if err != nil {
		err = errors.CanceledError("generation canceled").WithCause(err).Build()
	} else {
		err = fn(ctx)
	}
	d := time.Since(start)

	for _, o := range observers {
		o.OnStateComplete(s, d, err)
	}
	if err != nil {
		failed := s
		r.res.Failed = &failed
		return err
	}
	observability.DebugContext(ctx, "State complete", logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

func (r *run) validate(context.Context) error {
	if r.outputRoot == "" {
		return errors.ConfigError("output directory is not configured").Build()
	}
	if r.site == nil {
		return errors.ConfigError("site configuration is missing").Build()
	}
	return r.site.Validate()
}

func (r *run) copyResources(ctx context.Context) error {
	if r.clean {
		if err := cleanOutput(r.outputRoot); err != nil {
			return err
		}
		observability.InfoContext(ctx, "Cleaned output directory", logfields.Output(r.outputRoot))
	}
	if err := os.MkdirAll(r.outputRoot, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			Fatal().
			WithContext("path", r.outputRoot).
			Build()
	}

	before := len(r.res.Files)
	if err := resources.Copy(ctx, r.site.Items, r.outputRoot, &r.res.Files); err != nil {
		return err
	}
	r.recorder.AddFilesWritten("static", len(r.res.Files)-before)
	return nil
}

func (r *run) renderLanguage(ctx context.Context, templateDir, tag string) error {
	env := render.NewEnvironment(templateDir, tag, r.resolver, render.WithPageHook(r.onPage))
	before := len(r.res.Files)
	if err := env.RenderAll(ctx, r.site.Items, r.outputRoot, &r.res.Files); err != nil {
		return err
	}
	observability.DebugContext(ctx, "Language pass complete", logfields.Count(len(r.res.Files)-before))
	return nil
}

// translateAndRender renders one additional language. A catalog is merged into the
// default templates in the scratch workspace first; a pre-translated directory is
// rendered as is.
func (r *run) translateAndRender(ctx context.Context, tr site.Translation) error {
	dir := tr.TemplateDir
	if tr.CatalogPath != "" {
		ws, err := r.scratch()
		if err != nil {
			return err
		}
		dir, err = ws.LanguageDir(tr.Tag)
		if err != nil {
			return err
		}
		if err := translate.Translate(r.site.TemplateDir, tr.CatalogPath, dir); err != nil {
			return err
		}
		observability.DebugContext(ctx, "Translated templates", logfields.Path(dir))
	}
	return r.renderLanguage(ctx, dir, tr.Tag)
}

func (r *run) scratch() (*workspace.Manager, error) {
	if r.workspace != nil {
		return r.workspace, nil
	}
	ws := r.workspaceFactory()
	if err := ws.Create(); err != nil {
		return nil, err
	}
	r.workspace = ws
	return ws, nil
}

func (r *run) onPage(_ site.Item, tag, _ string, elapsed time.Duration) {
	r.recorder.ObservePageDuration(languageLabel(tag), elapsed)
	r.recorder.AddFilesWritten("page", 1)
}

func (r *run) verify(context.Context) error {
	broken, err := linkverify.VerifyOutput(r.outputRoot)
	if err != nil {
		return err
	}
	r.res.BrokenLinks = broken
	return linkverify.BrokenLinksError(r.outputRoot, broken)
}

func (r *run) writeManifest(ctx context.Context) error {
	var (
		m   manifest.Manifest
		err error
	)
	if r.manifestPath != "" {
		m, err = manifest.Write(r.res.Files, r.outputRoot, r.manifestPath)
	} else {
		m, err = manifest.Build(r.res.Files, r.outputRoot)
	}
	if err != nil {
		return err
	}
	r.res.Manifest = m
	if r.manifestPath != "" {
		observability.InfoContext(ctx, "Wrote manifest", logfields.Path(r.manifestPath), logfields.Count(len(m)))
	}
	return nil
}

// cleanOutput removes the output directory. Refuses the filesystem root and the
// working directory.
func cleanOutput(outputRoot string) error {
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "resolve output directory").
			Fatal().
			WithContext("path", outputRoot).
			Build()
	}
	wd, _ := os.Getwd()
	if abs == filepath.Dir(abs) || abs == wd {
		return errors.ConfigError("refusing to clean this output directory").
			WithContext("path", abs).
			Build()
	}
	if err := os.RemoveAll(abs); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "clean output directory").
			Fatal().
			WithContext("path", abs).
			Build()
	}
	return nil
}

func isCanceled(err error) bool {
	return errors.HasCategory(err, errors.CategoryCanceled) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded)
}
