package glossy_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"padsim/internal/glossy"
)

func TestHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(glossy.Handler{Output: &buf})

	logger.Info("device attached", "path", "/dev/input/event5", "name", "BYD Touchpad")

	out := buf.String()
	for _, want := range []string{"INFO", "device attached", "path", "/dev/input/event5", `"BYD Touchpad"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(glossy.Handler{Output: &buf, Level: slog.LevelInfo})

	logger.Debug("noisy")
	if buf.Len() != 0 {
		t.Errorf("debug record should have been dropped:\n%s", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn record should have been written")
	}
}

func TestHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := glossy.Handler{Output: &buf}.WithAttrs([]slog.Attr{slog.String("device", "/dev/input/event5")})

	logger := slog.New(h)
	logger.Info("reading")
	if !strings.Contains(buf.String(), "device") {
		t.Errorf("bound attr missing:\n%s", buf.String())
	}
}

func TestHandlerEnabled(t *testing.T) {
	h := glossy.Handler{Level: slog.LevelWarn}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
