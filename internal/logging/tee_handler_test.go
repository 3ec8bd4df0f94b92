package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if newTeeHandler(nil, nil) != slog.DiscardHandler {
		t.Fatal("expected discard handler when no sinks remain")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if newTeeHandler(nil, inner) != inner {
		t.Fatal("expected a single sink to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsSinkLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := newTeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug to be enabled when any sink accepts it")
	}
	logger := slog.New(h).With("component", "transform").WithGroup("plan")
	logger.Debug("probe", "rotate", true)
	logger.Info("encode", "mode", "crop")

	if strings.Contains(console.String(), "probe") {
		t.Fatalf("info sink received debug record: %q", console.String())
	}
	if !strings.Contains(console.String(), "encode") || !strings.Contains(file.String(), "probe") {
		t.Fatalf("records not duplicated: console=%q file=%q", console.String(), file.String())
	}
	if !strings.Contains(console.String(), "component=transform") || !strings.Contains(file.String(), "plan.rotate=true") {
		t.Fatalf("attrs or group not propagated: console=%q file=%q", console.String(), file.String())
	}
}
