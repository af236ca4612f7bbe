// Package resources copies static items into the output tree and turns a resource
// directory into static items.
package resources

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pomosite/internal/endpoint"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
	"git.home.luguber.info/inful/pomosite/internal/site"
)

// Copy copies the source of every static item of items to its output path under
// outputRoot and appends each written path to written. Static items are never
// localized, so each one is written exactly once.
func Copy(ctx context.Context, items *site.Registry, outputRoot string, written *[]string) error {
	statics := items.OfKind(site.StaticResource)
	for _, item := range statics {
		if err := ctx.Err(); err != nil {
			return errors.CanceledError("resource copy canceled").WithCause(err).Build()
		}

		dst, err := endpoint.OutputPath(item.Endpoint(), outputRoot, "", endpoint.IndexExtension(item.Source()))
		if err != nil {
			return copyError(err, "resolve output path", item, "")
		}
		if err := copyFile(item.Source(), dst); err != nil {
			return copyError(err, "copy resource", item, dst)
		}
		*written = append(*written, dst)
	}

	slog.Info("Copied resources", logfields.Output(outputRoot), logfields.Count(len(statics)))
	return nil
}

func copyError(err error, msg string, item site.Item, dst string) error {
	b := errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("item_id", item.ID()).
		WithContext("source", item.Source())
	if dst != "" {
		b = b.WithContext("path", dst)
	}
	return b.Build()
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 -- src is a configured static item source.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 -- dst is derived from a validated endpoint under the output root.
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

var referable = map[string]bool{
	".css": true, ".gif": true, ".jpg": true, ".jpeg": true, ".png": true, ".svg": true,
	".ps": true, ".eps": true, ".pdf": true, ".tif": true, ".tiff": true,
	".mp4": true, ".mpg": true, ".mpeg": true, ".avi": true,
}

// IsReferable reports whether a resource is referenced by its file name from templates.
func IsReferable(name string) bool {
	return referable[strings.ToLower(filepath.Ext(name))]
}

// Discover adds every file below dir to reg as a static item. The endpoint is the path
// relative to dir. Referable media files use their file name as id and must therefore
// have unique names; other files get a generated "_<n>" id.
func Discover(dir string, reg *site.Registry) (int, error) {
	added := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		id := d.Name()
		if !IsReferable(id) {
			id = fmt.Sprintf("_%d", reg.Len())
		}

		item := site.NewStaticResource(id, "/"+filepath.ToSlash(rel), path)
		if err := reg.Add(item); err != nil {
			return err
		}
		added++
		slog.Debug("Discovered resource", logfields.ItemID(id), logfields.Endpoint(item.Endpoint()))
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return added, err
		}
		return added, errors.WrapError(err, errors.CategoryFileSystem, "scan resource directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	return added, nil
}
