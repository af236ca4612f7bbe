// Package endpoint implements the path algebra for site endpoints: relative URL
// computation between two endpoints, localization by inserting a language segment,
// and mapping endpoints to output file paths.
//
// Endpoints are absolute, `/`-separated URL paths. A trailing `/` denotes a directory
// whose content is an index file; anything else names an exact file.
package endpoint

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultIndexExtension is used for directory endpoints when the source has no extension.
const DefaultIndexExtension = ".html"

var grammar = regexp.MustCompile(`^(/[A-Za-z0-9_.\-]*)+$`)

// ErrOutsideRoot is returned by OutputPath for endpoints resolving outside the output root.
var ErrOutsideRoot = errors.New("endpoint resolves outside the output root")

// Valid reports whether e is a well-formed endpoint: one or more `/`-prefixed segments
// of ASCII letters, digits, `_`, `.` and `-`, with an optional trailing `/`.
// The segments `.` and `..` are not allowed.
func Valid(e string) bool {
	if !grammar.MatchString(e) {
		return false
	}
	for _, seg := range strings.Split(e, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// IsDirectory reports whether the endpoint maps to an index file.
func IsDirectory(e string) bool {
	return strings.HasSuffix(e, "/")
}

// RelativeURL returns the shortest relative reference from the document at from to to.
// The final segment of from is the document itself and does not count as a directory.
// The result never starts with `/`; an empty reference is returned as "./".
func RelativeURL(from, to string) string {
	f := strings.Split(from, "/")
	t := strings.Split(to, "/")

	f[len(f)-1] = ""

	common := 0
	for common < len(f) && common < len(t) && f[common] == t[common] {
		common++
	}
	f = f[common:]
	t = t[common:]

	combined := t
	if len(f) > 1 {
		combined = make([]string, 0, len(f)-1+len(t))
		for range len(f) - 1 {
			combined = append(combined, "..")
		}
		combined = append(combined, t...)
	}

	if len(combined) == 0 {
		return "./"
	}
	return strings.Join(combined, "/")
}

// Localize inserts the language tag as a segment before the last segment of the endpoint.
// The default language (empty tag) leaves the endpoint unchanged.
//
//	Localize("/om-oss/", "en")    == "/om-oss/en/"
//	Localize("/script.php", "en") == "/en/script.php"
func Localize(e, languageTag string) string {
	if languageTag == "" {
		return e
	}
	atoms := strings.Split(e, "/")
	last := len(atoms) - 1
	localized := make([]string, 0, len(atoms)+1)
	localized = append(localized, atoms[:last]...)
	localized = append(localized, languageTag, atoms[last])
	return strings.Join(localized, "/")
}

// IndexExtension returns the extension of an index file generated from the named
// template or resource.
func IndexExtension(sourceName string) string {
	if ext := filepath.Ext(sourceName); ext != "" {
		return ext
	}
	return DefaultIndexExtension
}

// OutputPath maps an endpoint to an absolute file path under outputRoot. Directory
// endpoints get an index file with indexExt (DefaultIndexExtension when empty).
// Paths that would land outside outputRoot are rejected with ErrOutsideRoot.
func OutputPath(e, outputRoot, languageTag, indexExt string) (string, error) {
	if IsDirectory(e) {
		if indexExt == "" {
			indexExt = DefaultIndexExtension
		}
		e += "index" + indexExt
	}
	e = Localize(e, languageTag)

	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", err
	}
	p := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(e, "/")))
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, e)
	}
	return p, nil
}
