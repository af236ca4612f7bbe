package translate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"

	"git.home.luguber.info/inful/pomosite/internal/version"
)

// Entry is a catalog entry: a unit with every place it occurs.
type Entry struct {
	MsgID     string
	Locations []string
}

// Collect returns the translatable units of every HTML template in sourceDir, merged
// by msgid and sorted.
func Collect(sourceDir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fsError(err, "read template directory", sourceDir)
	}

	byID := map[string]*Entry{}
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		path := filepath.Join(sourceDir, de.Name())
		ok, err := IsTranslatable(path)
		if err != nil {
			return nil, fsError(err, "detect template type", path)
		}
		if !ok {
			continue
		}
		// #nosec G304 -- path is a direct child of the template directory.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fsError(err, "read template", path)
		}
		for _, u := range Units(data) {
			e, seen := byID[u.MsgID]
			if !seen {
				e = &Entry{MsgID: u.MsgID}
				byID[u.MsgID] = e
			}
			e.Locations = append(e.Locations, fmt.Sprintf("%s:%d", de.Name(), u.Line))
		}
	}

	entries := make([]Entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MsgID < entries[j].MsgID })
	return entries, nil
}

// Extract writes a POT template with the translatable units of sourceDir.
func Extract(sourceDir, potPath string) (int, error) {
	entries, err := Collect(sourceDir)
	if err != nil {
		return 0, err
	}
	return len(entries), writeCatalogFile(potPath, "", entries, nil)
}

// Pseudo writes a PO catalog for languageTag where every unit is replaced by an
// accented look-alike. Rendering with it shows which strings reach the catalog.
func Pseudo(sourceDir, poPath, languageTag string) (int, error) {
	entries, err := Collect(sourceDir)
	if err != nil {
		return 0, err
	}
	return len(entries), writeCatalogFile(poPath, languageTag, entries, pseudoLocalize)
}

func writeCatalogFile(path, languageTag string, entries []Entry, translate func(string) string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fsError(err, "create catalog directory", dir)
		}
	}
	// #nosec G304 -- output path is chosen by the user.
	f, err := os.Create(path)
	if err != nil {
		return fsError(err, "create catalog", path)
	}
	w := bufio.NewWriter(f)
	if err := WriteCatalog(w, languageTag, entries, translate); err != nil {
		_ = f.Close()
		return fsError(err, "write catalog", path)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fsError(err, "write catalog", path)
	}
	if err := f.Close(); err != nil {
		return fsError(err, "close catalog", path)
	}
	return nil
}

// WriteCatalog writes entries in gettext PO syntax, ordered by first location. With a
// nil translate function every msgstr is empty, which makes the output a POT template.
func WriteCatalog(w io.Writer, languageTag string, entries []Entry, translate func(string) string) error {
	data, err := catalogDomain(languageTag, entries, translate).MarshalText()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func catalogDomain(languageTag string, entries []Entry, translate func(string) string) *gotext.Domain {
	d := gotext.NewDomain()
	d.Headers.Set("Project-Id-Version", "pomosite "+version.Version)
	d.Headers.Set("MIME-Version", "1.0")
	d.Headers.Set("Content-Type", "text/plain; charset=UTF-8")
	d.Headers.Set("Content-Transfer-Encoding", "8bit")
	if languageTag != "" {
		d.Headers.Set("Language", languageTag)
	}

	for _, e := range entries {
		msgstr := ""
		if translate != nil {
			msgstr = translate(e.MsgID)
		}
		id := poEscaper.Replace(e.MsgID)
		d.Set(id, poEscaper.Replace(msgstr))
		d.SetRefs(id, e.Locations)
	}
	return d
}

// MarshalText leaves backslashes alone and misses a quote at the start of a string.
// Pre-escaped quotes are kept as they are.
var poEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\t", `\t`)

var pseudoUpper = []rune("ȦƁƇḒḖƑƓĦĪĴĶĿḾȠǾƤɊŘŞŦŬṼẆẊẎẐ")
var pseudoLower = []rune("ȧƀƈḓḗƒɠħīĵķŀḿƞǿƥɋřşŧŭṽẇẋẏẑ")

func pseudoLocalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(pseudoLower[r-'a'])
		case r >= 'A' && r <= 'Z':
			b.WriteRune(pseudoUpper[r-'A'])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
