// pattern: Functional Core

package logging

import (
	"testing"
	"time"
)

func TestLogEntry_String(t *testing.T) {
	entry := LogEntry{
		Timestamp: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
		Level:     "ERROR",
		Scope:     "tree",
		Message:   "build failed",
		Fields:    map[string]any{"root": "/a", "error": "boom"},
	}

	want := "10:30:00 ERROR [tree] build failed error=boom root=/a"
	if got := entry.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLogEntry_MatchesScope(t *testing.T) {
	entry := LogEntry{Scope: "project.watch"}

	tests := []struct {
		prefix string
		want   bool
	}{
		{"", true},
		{"project", true},
		{"project.watch", true},
		{"tree", false},
	}
	for _, tt := range tests {
		if got := entry.MatchesScope(tt.prefix); got != tt.want {
			t.Errorf("MatchesScope(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"warn":    "WARN",
		"Error":   "ERROR",
		"fatal":   "INFO",
		"":        "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
