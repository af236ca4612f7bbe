package translate

import (
	"bytes"
	"html"
	"regexp"
	"slices"
	"strings"
	"unicode"

	nethtml "golang.org/x/net/html"
)

var actionPattern = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")
)

// unitFunc receives a translatable unit and its 1-based line. It returns the
// replacement text and whether to use it.
type unitFunc func(msgid string, line int) (string, bool)

// Merge returns src with every unit that lookup can translate replaced.
func Merge(src []byte, lookup Lookup) []byte {
	return walk(src, func(msgid string, _ int) (string, bool) {
		return lookup.Lookup(msgid)
	})
}

// Units returns the translatable units of src in document order, with their lines.
func Units(src []byte) []Unit {
	var units []Unit
	walk(src, func(msgid string, line int) (string, bool) {
		units = append(units, Unit{MsgID: msgid, Line: line})
		return "", false
	})
	return units
}

// Unit is one translatable string of a template.
type Unit struct {
	MsgID string
	Line  int
}

func walk(src []byte, fn unitFunc) []byte {
	z := nethtml.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))

	line := 1
	rawText := false
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			break
		}
		// TagName lowercases the tokenizer buffer in place.
		raw := slices.Clone(z.Raw())

		switch tt {
		case nethtml.TextToken:
			if rawText {
				out.Write(raw)
			} else {
				out.WriteString(mergeText(string(raw), line, fn))
			}
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tt == nethtml.StartTagToken && (tag == "script" || tag == "style") {
				rawText = true
			}
			out.WriteString(mergeAttrs(string(raw), tag, line, fn))
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				rawText = false
			}
			out.Write(raw)
		default:
			out.Write(raw)
		}
		line += bytes.Count(raw, []byte{'\n'})
	}
	return out.Bytes()
}

// mergeText handles one text node. Template actions split the node into literal
// segments; each segment is a unit of its own.
func mergeText(raw string, line int, fn unitFunc) string {
	var b strings.Builder
	pos := 0
	for _, loc := range actionPattern.FindAllStringIndex(raw, -1) {
		b.WriteString(mergeSegment(raw[pos:loc[0]], line+strings.Count(raw[:pos], "\n"), fn))
		b.WriteString(raw[loc[0]:loc[1]])
		pos = loc[1]
	}
	b.WriteString(mergeSegment(raw[pos:], line+strings.Count(raw[:pos], "\n"), fn))
	return b.String()
}

func mergeSegment(seg string, line int, fn unitFunc) string {
	core := strings.TrimSpace(seg)
	if core == "" {
		return seg
	}
	msgid := normalize(html.UnescapeString(core))
	if !translatable(msgid) {
		return seg
	}
	lead := seg[:strings.Index(seg, core)]
	trail := seg[len(lead)+len(core):]

	tr, ok := fn(msgid, line+strings.Count(lead, "\n"))
	if !ok {
		return seg
	}
	return lead + textEscaper.Replace(tr) + trail
}

// attrSpan locates one attribute value inside a raw start tag.
type attrSpan struct {
	key        string
	start, end int
	quoted     bool
}

func (a attrSpan) value(raw string) string {
	if a.start < 0 {
		return ""
	}
	return html.UnescapeString(raw[a.start:a.end])
}

// scanAttrs walks the attributes of a raw start tag. Template actions are opaque,
// so quotes inside {{ }} never end a value.
func scanAttrs(raw string) []attrSpan {
	i := 1
	for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}

	var spans []attrSpan
	for i < len(raw) {
		for i < len(raw) && (isTagSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		ks := i
		for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			if strings.HasPrefix(raw[i:], "{{") {
				i = skipAction(raw, i)
				continue
			}
			i++
		}
		span := attrSpan{key: strings.ToLower(raw[ks:i]), start: -1, end: -1}

		j := skipTagSpace(raw, i)
		if j >= len(raw) || raw[j] != '=' {
			spans = append(spans, span)
			i = j
			continue
		}
		j = skipTagSpace(raw, j+1)
		if j < len(raw) && (raw[j] == '"' || raw[j] == '\'') {
			q := raw[j]
			k := j + 1
			for k < len(raw) && raw[k] != q {
				if strings.HasPrefix(raw[k:], "{{") {
					k = skipAction(raw, k)
					continue
				}
				k++
			}
			span.start, span.end, span.quoted = j+1, min(k, len(raw)), true
			i = k + 1
		} else {
			k := j
			for k < len(raw) && !isTagSpace(raw[k]) && raw[k] != '>' {
				if strings.HasPrefix(raw[k:], "{{") {
					k = skipAction(raw, k)
					continue
				}
				k++
			}
			span.start, span.end = j, min(k, len(raw))
			i = k
		}
		spans = append(spans, span)
	}
	return spans
}

func skipAction(raw string, i int) int {
	idx := strings.Index(raw[i+2:], "}}")
	if idx < 0 {
		return len(raw)
	}
	return i + 2 + idx + 2
}

func skipTagSpace(raw string, i int) int {
	for i < len(raw) && isTagSpace(raw[i]) {
		i++
	}
	return i
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func mergeAttrs(raw, tag string, line int, fn unitFunc) string {
	spans := scanAttrs(raw)

	isDescription := false
	if tag == "meta" {
		for _, a := range spans {
			if a.key == "name" && strings.EqualFold(a.value(raw), "description") {
				isDescription = true
			}
		}
	}

	var b strings.Builder
	pos := 0
	for _, a := range spans {
		switch a.key {
		case "alt", "title", "placeholder":
		case "content":
			if !isDescription {
				continue
			}
		default:
			continue
		}
		if a.start < 0 || strings.Contains(raw[a.start:a.end], "{{") {
			continue
		}
		msgid := normalize(a.value(raw))
		if !translatable(msgid) {
			continue
		}
		tr, ok := fn(msgid, line+strings.Count(raw[:a.start], "\n"))
		if !ok {
			continue
		}
		b.WriteString(raw[pos:a.start])
		if a.quoted {
			b.WriteString(attrEscaper.Replace(tr))
		} else {
			// an unquoted value cannot hold the translation's spaces
			b.WriteString(`"` + attrEscaper.Replace(tr) + `"`)
		}
		pos = a.end
	}
	if pos == 0 {
		return raw
	}
	b.WriteString(raw[pos:])
	return b.String()
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// translatable reports whether s contains anything a translator could work on.
func translatable(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
