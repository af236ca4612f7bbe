package translate

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext"

	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
)

// Lookup returns the translation of msgid, if the catalog has one.
type Lookup interface {
	Lookup(msgid string) (string, bool)
}

// Catalog is a parsed PO catalog.
type Catalog struct {
	path    string
	entries map[string]string
}

// LoadCatalog parses the PO file at path. Fuzzy entries and entries with an empty
// msgstr are left out.
func LoadCatalog(path string) (*Catalog, error) {
	// #nosec G304 -- catalog paths come from the site configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTranslation, "read translation catalog").
			Fatal().
			WithContext("path", path).
			Build()
	}

	po := gotext.NewPo()
	po.Parse(data)

	fuzzy := fuzzyIDs(data)
	entries := make(map[string]string)
	for id, tr := range po.GetDomain().GetTranslations() {
		if id == "" || !tr.IsTranslated() || fuzzy[id] {
			continue
		}
		entries[id] = tr.Get()
	}
	return &Catalog{path: path, entries: entries}, nil
}

// fuzzyIDs returns the msgids of entries flagged "#, fuzzy". gotext parses the
// flag line as a comment and drops it.
func fuzzyIDs(data []byte) map[string]bool {
	ids := map[string]bool{}
	pending := false
	var id *strings.Builder

	flush := func() {
		if id != nil {
			ids[id.String()] = true
			id = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(l, "#,"):
			for _, flag := range strings.Split(l[2:], ",") {
				if strings.TrimSpace(flag) == "fuzzy" {
					pending = true
				}
			}
		case strings.HasPrefix(l, "msgid ") && pending:
			pending = false
			id = &strings.Builder{}
			s, _ := strconv.Unquote(strings.TrimSpace(strings.TrimPrefix(l, "msgid")))
			id.WriteString(s)
		case strings.HasPrefix(l, `"`) && id != nil:
			s, _ := strconv.Unquote(l)
			id.WriteString(s)
		default:
			flush()
		}
	}
	flush()
	return ids
}

// Path returns the file the catalog was loaded from.
func (c *Catalog) Path() string { return c.path }

// Len returns the number of usable translations.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the translation of msgid. Untranslated and fuzzy entries report false.
func (c *Catalog) Lookup(msgid string) (string, bool) {
	tr, ok := c.entries[msgid]
	return tr, ok
}

// MapCatalog is an in-memory catalog.
type MapCatalog map[string]string

// Lookup implements Lookup.
func (m MapCatalog) Lookup(msgid string) (string, bool) {
	tr, ok := m[msgid]
	if !ok || tr == "" {
		return "", false
	}
	return tr, true
}
