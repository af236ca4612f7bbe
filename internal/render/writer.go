package render

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/endpoint"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

// RenderAll renders every template page of items in id order, writes each result to
// its localized output path under outputRoot and appends the written path to written.
// The first failure stops the pass.
func (e *Environment) RenderAll(ctx context.Context, items *site.Registry, outputRoot string, written *[]string) error {
	pages := items.OfKind(site.TemplatePage)
	for _, item := range pages {
		if err := ctx.Err(); err != nil {
			return errors.CanceledError("rendering canceled").
				WithCause(err).
				WithContext("language_tag", e.languageTag).
				Build()
		}

		start := time.Now()
		out, err := e.RenderPage(item)
		if err != nil {
			return err
		}

		path, err := endpoint.OutputPath(item.Endpoint(), outputRoot, e.languageTag, endpoint.IndexExtension(item.Template()))
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "resolve output path").
				Fatal().
				WithContext("page_id", item.ID()).
				WithContext("language_tag", e.languageTag).
				Build()
		}
		if err := WriteFile(path, out); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write page").
				Fatal().
				WithContext("page_id", item.ID()).
				WithContext("language_tag", e.languageTag).
				WithContext("path", path).
				Build()
		}
		*written = append(*written, path)

		elapsed := time.Since(start)
		slog.Debug("Rendered page",
			logfields.PageID(item.ID()),
			logfields.Language(e.languageTag),
			logfields.Output(path),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
		if e.onPage != nil {
			e.onPage(item, e.languageTag, path, elapsed)
		}
	}
	slog.Info("Rendered language",
		logfields.Language(e.languageTag),
		logfields.TemplateDir(e.dir),
		logfields.Count(len(pages)))
	return nil
}

// WriteFile writes content to path, creating parent directories and replacing any
// existing file.
func WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	// #nosec G306 -- generated site files are served publicly.
	return os.WriteFile(path, content, 0o644)
}
