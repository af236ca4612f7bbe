package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyItemID     = "item_id"
	KeyPageID     = "page_id"
	KeyEndpoint   = "endpoint"
	KeyLanguage   = "language_tag"
	KeyTemplate   = "template"
	KeyTemplates  = "template_dir"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func ItemID(id string) slog.Attr       { return slog.String(KeyItemID, id) }
func PageID(id string) slog.Attr       { return slog.String(KeyPageID, id) }
func Endpoint(e string) slog.Attr      { return slog.String(KeyEndpoint, e) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func TemplateDir(dir string) slog.Attr { return slog.String(KeyTemplates, dir) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(dir string) slog.Attr      { return slog.String(KeyOutput, dir) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }

// Language logs the language tag of a rendering pass; the default pass is logged as "default".
func Language(tag string) slog.Attr {
	if tag == "" {
		return slog.String(KeyLanguage, "default")
	}
	return slog.String(KeyLanguage, tag)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
