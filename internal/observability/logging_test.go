package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if lc := GetContext(ctx); lc.RunID != "run-123" {
		t.Errorf("expected run-123, got %s", lc.RunID)
	}
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := context.Background()
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStage(ctx, "validating")
	ctx = WithStage(ctx, "rendering")
	ctx = WithLanguage(ctx, "en")

	lc := GetContext(ctx)
	if lc.RunID != "run-1" || lc.Stage != "rendering" || lc.LanguageTag != "en" {
		t.Errorf("unexpected context: %+v", lc)
	}
}

func TestInfoContextAddsAttributes(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithLanguage(WithStage(WithRunID(context.Background(), "run-9"), "rendering"), "")
	InfoContext(ctx, "Rendered", slog.Int("count", 3))

	out := buf.String()
	for _, want := range []string{"run_id=run-9", "stage=rendering", "language_tag=default", "count=3", "msg=Rendered"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestNoLanguageWithoutPass(t *testing.T) {
	buf := captureLogs(t)

	WarnContext(WithStage(context.Background(), "validating"), "Careful")
	if strings.Contains(buf.String(), "language_tag") {
		t.Errorf("unexpected language attribute in %q", buf.String())
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected warn level in %q", buf.String())
	}
}

func TestLevels(t *testing.T) {
	buf := captureLogs(t)
	ctx := context.Background()

	DebugContext(ctx, "d")
	ErrorContext(ctx, "e")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("missing levels in %q", out)
	}
}
