package site

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

var (
	// headerPattern matches a template comment on the first line, e.g.
	// {{/* id: "P1", endpoint: "/" */}}
	headerPattern = regexp.MustCompile(`^\{\{-?\s*/\*(.*)\*/\s*-?\}\}$`)
	pairPattern   = regexp.MustCompile(`^\s*([\w\-]+)\s*:\s*(\S+)\s*$`)
)

// ParsePageConfig parses the body of a page-config header: comma separated
// `key: value` pairs whose values are YAML scalars. Malformed pairs are skipped.
func ParsePageConfig(s string) (map[string]any, error) {
	cfg := map[string]any{}
	for _, part := range strings.Split(s, ",") {
		m := pairPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(m[2]), &v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", m[1], err)
		}
		cfg[m[1]] = v
	}
	return cfg, nil
}

// ReadPageConfig reads the page-config header of a template file. ok is false when the
// first line is not a header.
func ReadPageConfig(path string) (cfg map[string]any, ok bool, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = f.Close()
	}()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, false, sc.Err()
	}
	m := headerPattern.FindStringSubmatch(strings.TrimRight(sc.Text(), " \t\r"))
	if m == nil {
		return nil, false, nil
	}
	cfg, err = ParsePageConfig(m[1])
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// DiscoverTemplates adds a template page for every file directly in dir whose header
// carries an id. Subdirectories are not scanned.
func DiscoverTemplates(dir string, reg *Registry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "read template directory").
			Fatal().
			WithContext("template_dir", dir).
			Build()
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		cfg, ok, err := ReadPageConfig(path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "read page-config header").
				Fatal().
				WithContext("template", e.Name()).
				Build()
		}
		if !ok {
			continue
		}
		id, _ := cfg[FieldID].(string)
		if id == "" {
			slog.Debug("Template header without id, skipping", logfields.Template(e.Name()))
			continue
		}
		cfg[FieldTemplate] = e.Name()

		item, err := FromFields(id, cfg)
		if err != nil {
			return err
		}
		if err := reg.Add(item); err != nil {
			return err
		}
		slog.Debug("Discovered page", logfields.PageID(id), logfields.Template(e.Name()), logfields.Endpoint(item.Endpoint()))
	}
	return nil
}
