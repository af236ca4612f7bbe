// Package linkverify checks that the links in a generated site point at files that
// exist in the output.
package linkverify

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/logfields"
)

// BrokenLink is a link whose target does not exist in the output.
type BrokenLink struct {
	// Page is the output file containing the link, relative to the output root.
	Page string
	Link Link
	// Reason is empty when the target is missing, otherwise why it could not be checked.
	Reason string
}

func (b BrokenLink) String() string {
	if b.Reason != "" {
		return fmt.Sprintf("%s: <%s %s=%q>: %s", b.Page, b.Link.Tag, b.Link.Attribute, b.Link.URL, b.Reason)
	}
	return fmt.Sprintf("%s: <%s %s=%q>: target not found", b.Page, b.Link.Tag, b.Link.Attribute, b.Link.URL)
}

// VerifyOutput parses every HTML file under outputRoot and returns the links whose
// target file is missing. Root-relative links are resolved against outputRoot, other
// relative links against the directory of the page. A link to a directory is satisfied
// by an index file in it. Queries and fragments are ignored.
func VerifyOutput(outputRoot string) ([]BrokenLink, error) {
	var broken []BrokenLink
	pages := 0
	err := filepath.WalkDir(outputRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isHTML(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(outputRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		pages++
		for _, l := range links {
			if !ShouldVerifyLink(l.URL) {
				continue
			}
			if reason := check(outputRoot, rel, l.URL); reason != "" {
				b := BrokenLink{Page: rel, Link: l}
				if reason != reasonMissing {
					b.Reason = reason
				}
				broken = append(broken, b)
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "scan output directory").
			Fatal().
			WithContext("path", outputRoot).
			Build()
	}

	slog.Info("Verified links", logfields.Output(outputRoot), logfields.Count(pages), slog.Int("broken", len(broken)))
	return broken, nil
}

// Check returns an error listing the broken links of outputRoot, nil when every link
// resolves.
func Check(outputRoot string) error {
	broken, err := VerifyOutput(outputRoot)
	if err != nil {
		return err
	}
	return BrokenLinksError(outputRoot, broken)
}

// BrokenLinksError logs every broken link and summarizes them in a validation error.
// It returns nil for an empty list.
func BrokenLinksError(outputRoot string, broken []BrokenLink) error {
	if len(broken) == 0 {
		return nil
	}
	for _, b := range broken {
		slog.Warn("Broken link", logfields.Path(b.Page), slog.String("link", b.Link.URL))
	}
	return errors.ValidationError(fmt.Sprintf("%d broken link(s), first: %s", len(broken), broken[0])).
		WithContext("path", outputRoot).
		WithContext("broken", len(broken)).
		Build()
}

const reasonMissing = "missing"

func check(outputRoot, pageRel, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "unparsable URL"
	}
	if u.Path == "" {
		return ""
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(pageRel), target)
		if target == ".." || strings.HasPrefix(target, "../") {
			return "points outside the output directory"
		}
	}
	target = path.Clean("/" + target)

	full := filepath.Join(outputRoot, filepath.FromSlash(target))
	info, err := os.Stat(full)
	if err != nil {
		return reasonMissing
	}
	if !info.IsDir() {
		if strings.HasSuffix(u.Path, "/") {
			return reasonMissing
		}
		return ""
	}
	if hasIndex(full) {
		return ""
	}
	return reasonMissing
}

// hasIndex reports whether dir holds an index file of any extension.
func hasIndex(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "index.*"))
	return err == nil && len(matches) > 0
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
