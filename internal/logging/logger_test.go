package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortsmith/internal/config"
	"shortsmith/internal/logging"
	"shortsmith/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("pipeline started", logging.String(logging.FieldStage, "download"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, content)
	}
	if record["msg"] != "pipeline started" || record["stage"] != "download" || record["level"] != "info" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestConsoleLoggerWithoutTerminalHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("clip rendered", logging.String("output", "short_abc.mp4"))
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "clip rendered") || !strings.Contains(out, "output=short_abc.mp4") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes for non-terminal writer: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered at info level: %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no source location at info level: %q", out)
	}
}

func TestJSONLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("probe")
	if !strings.Contains(buf.String(), `"source":"logger_test.go:`) {
		t.Fatalf("expected source location in debug output: %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", " WARN ": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"}
	for input, want := range cases {
		if got := logging.ParseLevel(input).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithVideoID(context.Background(), "dQw4w9WgXcQ")
	ctx = services.WithStage(ctx, "transform")
	ctx = services.WithRequestID(ctx, "req-1")

	logging.WithContext(ctx, logger).Info("encoding")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldVideoID] != "dQw4w9WgXcQ" || record[logging.FieldStage] != "transform" || record[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("missing context fields: %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "metadata cache unavailable", "cache_open_failed",
		logging.String(logging.FieldImpact, "metadata fetched on every request"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "cache_open_failed" {
		t.Fatalf("unexpected event type: %v", record)
	}
	if record[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("expected default hint: %v", record)
	}
	if record[logging.FieldImpact] != "metadata fetched on every request" {
		t.Fatalf("explicit impact overwritten: %v", record)
	}
}

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, logging.LogFileName)
	old := filepath.Join(dir, "shortsmith-20250101.log")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, path := range []string{active, old, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		stale := time.Now().AddDate(0, 0, -40)
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.PruneLogs(logging.NewNop(), dir, 30, active)
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{active, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
	if logging.PruneLogs(nil, dir, 0) != 0 {
		t.Fatal("retention 0 should disable pruning")
	}
}
