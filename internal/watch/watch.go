// Package watch regenerates the site whenever one of its inputs changes.
//
// Every change triggers a full generation after a quiet period. Generations run one
// at a time on the watch loop goroutine; changes made while a generation is running
// trigger exactly one more.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before regenerating.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one full generation.
type BuildFunc func(ctx context.Context) error

// Watcher watches input paths and calls a BuildFunc on change.
type Watcher struct {
	paths    []string
	ignore   []string
	debounce time.Duration
	build    BuildFunc
	onBuild  func(err error)

	dirs  map[string]bool
	files map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore excludes paths, typically the output directory, from triggering builds.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p != "" {
				w.ignore = append(w.ignore, absPath(p))
			}
		}
	}
}

// WithBuildHook registers a function called after every generation with its result.
func WithBuildHook(fn func(err error)) Option {
	return func(w *Watcher) {
		w.onBuild = fn
	}
}

// New creates a watcher. paths may be directories, watched recursively, or files.
// Empty paths are skipped.
func New(paths []string, build BuildFunc, opts ...Option) *Watcher {
	w := &Watcher{
		debounce: DefaultDebounce,
		build:    build,
		dirs:     map[string]bool{},
		files:    map[string]bool{},
	}
	for _, p := range paths {
		if p != "" {
			w.paths = append(w.paths, absPath(p))
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs an initial generation and then regenerates on every change until ctx
// is done. Generation errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "create file watcher").Fatal().Build()
	}
	defer func() { _ = fw.Close() }()

	for _, p := range w.paths {
		if err := w.add(fw, p); err != nil {
			return err
		}
	}
	slog.Info("Watching for changes", slog.Int("paths", len(w.paths)), slog.Duration("debounce", w.debounce))

	w.runBuild(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Stopped watching")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, ev) {
				continue
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-timer.C:
			pending = false
			slog.Info("Change detected; regenerating site")
			w.runBuild(ctx)
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context) {
	start := time.Now()
	err := w.build(ctx)
	if err != nil {
		slog.Warn("Generation failed; waiting for changes", logfields.Error(err))
	} else {
		slog.Info("Generation succeeded", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}
	if w.onBuild != nil {
		w.onBuild(err)
	}
}

// add watches a directory tree, or the parent directory of a file so that editors
// replacing the file are noticed.
func (w *Watcher) add(fw *fsnotify.Watcher, p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "watch path").
			Fatal().
			WithContext("path", p).
			Build()
	}
	if !info.IsDir() {
		w.files[p] = true
		if err := fw.Add(filepath.Dir(p)); err != nil {
			return errors.WrapError(err, errors.CategoryRuntime, "watch path").
				Fatal().
				WithContext("path", p).
				Build()
		}
		return nil
	}
	w.dirs[p] = true
	return addDirsRecursive(fw, p)
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// relevant reports whether an event concerns a watched input. New directories below
// a watched tree are added to the watcher.
func (w *Watcher) relevant(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) {
		return false
	}
	if w.files[ev.Name] {
		return true
	}
	if !w.inWatchedDir(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(fw, ev.Name)
		}
	}
	return true
}

func (w *Watcher) inWatchedDir(p string) bool {
	for dir := range w.dirs {
		if within(dir, p) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(p string) bool {
	for _, ig := range w.ignore {
		if within(ig, p) {
			return true
		}
	}
	return false
}

func within(dir, p string) bool {
	return p == dir || strings.HasPrefix(p, dir+string(filepath.Separator))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
