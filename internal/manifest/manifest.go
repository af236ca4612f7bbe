// Package manifest records the files of a generated site with their content digests.
//
// The manifest is a text file with one line per file, sorted by path:
//
//	<relative path>;<sha256 hex digest>
//
// Paths are relative to the output root and always use forward slashes.
package manifest

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// Entry is one manifest line.
type Entry struct {
	Path   string
	Digest string
}

// Manifest is a sorted list of entries without duplicate paths.
type Manifest []Entry

// Build hashes the given files. Each file must be inside outputRoot. Duplicate paths
// are recorded once.
func Build(files []string, outputRoot string) (Manifest, error) {
	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fsError(err, "resolve output root", outputRoot)
	}

	seen := make(map[string]bool, len(files))
	m := make(Manifest, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fsError(err, "resolve output file", f)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
			return nil, errors.InternalError("output file is outside the output root").
				WithContext("path", f).
				WithContext("output", outputRoot).
				Build()
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			continue
		}
		seen[rel] = true

		digest, err := FileDigest(abs)
		if err != nil {
			return nil, fsError(err, "hash output file", abs)
		}
		m = append(m, Entry{Path: rel, Digest: digest})
	}
	m.sort()
	return m, nil
}

// Write builds the manifest of files and writes it to manifestPath.
func Write(files []string, outputRoot, manifestPath string) (Manifest, error) {
	m, err := Build(files, outputRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o750); err != nil {
		return nil, fsError(err, "create manifest directory", manifestPath)
	}
	// #nosec G306 -- the manifest is published alongside the site.
	if err := os.WriteFile(manifestPath, []byte(m.String()), 0o644); err != nil {
		return nil, fsError(err, "write manifest", manifestPath)
	}
	return m, nil
}

// Read parses a manifest file.
func Read(manifestPath string) (Manifest, error) {
	// #nosec G304 -- manifest path comes from configuration.
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, fsError(err, "open manifest", manifestPath)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "parse manifest").
			WithContext("path", manifestPath).
			Build()
	}
	return m, nil
}

// Parse reads manifest lines from r.
func Parse(r io.Reader) (Manifest, error) {
	var m Manifest
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		i := strings.LastIndexByte(line, ';')
		if i <= 0 || i == len(line)-1 {
			return nil, fmt.Errorf("line %d: expected <path>;<digest>", lineNo)
		}
		m = append(m, Entry{Path: line[:i], Digest: line[i+1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	m.sort()
	return m, nil
}

// String renders the manifest in file format.
func (m Manifest) String() string {
	var b strings.Builder
	for _, e := range m {
		b.WriteString(e.Path)
		b.WriteByte(';')
		b.WriteString(e.Digest)
		b.WriteByte('\n')
	}
	return b.String()
}

// Digest is the SHA-256 of the manifest text. Two builds with the same digest produced
// byte-identical sites.
func (m Manifest) Digest() string {
	sum := sha256.Sum256([]byte(m.String()))
	return hex.EncodeToString(sum[:])
}

func (m Manifest) sort() {
	slices.SortFunc(m, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
}

// Changes lists the paths that differ between two manifests.
type Changes struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty reports whether the manifests were identical.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// Diff compares an older manifest with a newer one.
func Diff(old, cur Manifest) Changes {
	before := make(map[string]string, len(old))
	for _, e := range old {
		before[e.Path] = e.Digest
	}

	var c Changes
	for _, e := range cur {
		d, ok := before[e.Path]
		switch {
		case !ok:
			c.Added = append(c.Added, e.Path)
		case d != e.Digest:
			c.Changed = append(c.Changed, e.Path)
		}
		delete(before, e.Path)
	}
	for p := range before {
		c.Removed = append(c.Removed, p)
	}
	slices.Sort(c.Added)
	slices.Sort(c.Changed)
	slices.Sort(c.Removed)
	return c
}

// FileDigest returns the hex SHA-256 of a file's content.
func FileDigest(path string) (string, error) {
	// #nosec G304 -- callers pass files they wrote.
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}
