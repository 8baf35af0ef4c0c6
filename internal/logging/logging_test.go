package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unexpected error state: %v", err)
			}
			if level != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestAutoFormatUsesJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "auto")
	logger.Info("Processed category", "category", "ab6", "records", 9)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q", buf.String())
	}
	if entry["category"] != "ab6" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("shown", "isbn", "9780000000001")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info message should be filtered")
	}
	if !strings.Contains(out, "isbn=9780000000001") {
		t.Errorf("Unexpected output: %q", out)
	}
}
