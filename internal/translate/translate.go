package translate

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

// Translate writes a translated copy of the templates in sourceDir to destDir, using
// the PO catalog at catalogPath. destDir is created if needed. Only the top level of
// sourceDir is processed. Files that are not HTML are copied unchanged.
func Translate(sourceDir, catalogPath, destDir string) error {
	cat, err := LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	return TranslateWith(cat, sourceDir, destDir)
}

// TranslateWith is Translate with an already loaded catalog.
func TranslateWith(lookup Lookup, sourceDir, destDir string) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fsError(err, "read template directory", sourceDir)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fsError(err, "create translated template directory", destDir)
	}

	merged := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		src := filepath.Join(sourceDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())

		// #nosec G304 -- src is a direct child of the template directory.
		data, err := os.ReadFile(src)
		if err != nil {
			return fsError(err, "read template", src)
		}

		ok, err := IsTranslatable(src)
		if err != nil {
			return fsError(err, "detect template type", src)
		}
		if ok {
			data = Merge(data, lookup)
			merged++
		}
		// #nosec G306 -- templates are not secret.
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fsError(err, "write translated template", dst)
		}
	}

	slog.Debug("Translated templates",
		logfields.TemplateDir(sourceDir),
		logfields.Output(destDir),
		logfields.Count(merged))
	return nil
}

// IsTranslatable reports whether the file at path is HTML markup. Files with an .html
// or .htm extension are; files without an extension are sniffed.
func IsTranslatable(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true, nil
	case "":
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return false, err
		}
		return mt.Is("text/html"), nil
	default:
		return false, nil
	}
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}
