package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"}, // Invalid level
	}

	for _, test := range tests {
		if result := test.level.String(); result != test.expected {
			t.Errorf("Level.String() = %v, expected %v", result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"trace", TraceLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{" error ", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, test := range tests {
		if result := ParseLevel(test.input); result != test.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	if err := Initialize(Config{Level: WarnLevel, Component: "test"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("should be filtered")
	Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Error("info message should have been filtered at warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("warn message missing from output")
	}
}

func TestJSONOutput(t *testing.T) {
	if err := Initialize(Config{Level: InfoLevel, JSON: true, Component: "test"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("structured message", String("path", "a/b.ws"), Int("count", 3))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Message != "structured message" {
		t.Errorf("Message = %q, expected %q", entry.Message, "structured message")
	}
	if entry.Fields["path"] != "a/b.ws" {
		t.Errorf("Fields[path] = %v, expected a/b.ws", entry.Fields["path"])
	}
}

func TestPrettyOutputIncludesFields(t *testing.T) {
	if err := Initialize(Config{Level: InfoLevel, Component: "wsmerge"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("conflict detected", String("file", "game.ws"))

	output := buf.String()
	if !strings.Contains(output, "wsmerge:") {
		t.Errorf("expected component tag in output, got %q", output)
	}
	if !strings.Contains(output, "file=game.ws") {
		t.Errorf("expected field in output, got %q", output)
	}
}
