package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONLoggerToTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docproc-api", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "stage", "invoke")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one json entry, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "docproc-api" || entry["msg"] != "kept" || entry["stage"] != "invoke" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLongStringAttrsAreTruncated(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docproc-api", "info")

	logger.Info("pipeline_stage", "reply", strings.Repeat("é", MaxAttrLen), "stage", "interpret")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	reply, _ := entry["reply"].(string)
	if len(reply) > MaxAttrLen+len(truncatedSuffix) || !strings.HasSuffix(reply, truncatedSuffix) {
		t.Fatalf("expected truncated reply, got %d bytes", len(reply))
	}
	if !strings.HasPrefix(reply, "éé") || strings.ContainsRune(reply, '\uFFFD') {
		t.Fatalf("truncation split a rune: %q", reply[:8])
	}
	if entry["stage"] != "interpret" {
		t.Fatalf("short attrs should be untouched: %v", entry)
	}
}
