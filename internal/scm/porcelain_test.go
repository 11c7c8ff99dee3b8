package scm

import "testing"

func TestParsePorcelain(t *testing.T) {
	out := []byte(" M src/main.go\x00" +
		"?? plans/new.plan\x00" +
		"D  old.txt\x00" +
		" D gone.txt\x00" +
		"R  renamed.go\x00original.go\x00" +
		"A  added.go\x00" +
		"UU conflict.go\x00" +
		"!! build/out.bin\x00")

	entries := ParsePorcelain(out)

	want := []Entry{
		{Path: "src/main.go", Status: StatusModified},
		{Path: "plans/new.plan", Status: StatusUntracked},
		{Path: "old.txt", Status: StatusDeleted},
		{Path: "gone.txt", Status: StatusDeleted},
		{Path: "renamed.go", OrigPath: "original.go", Status: StatusRenamed},
		{Path: "added.go", Status: StatusAdded},
		{Path: "conflict.go", Status: StatusConflicted},
	}

	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParsePorcelain_Empty(t *testing.T) {
	if entries := ParsePorcelain(nil); len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestParsePorcelain_SkipsMalformed(t *testing.T) {
	entries := ParsePorcelain([]byte("X\x00MMnospace\x00 M ok.go\x00"))
	if len(entries) != 1 || entries[0].Path != "ok.go" {
		t.Fatalf("expected only ok.go, got %+v", entries)
	}
}

func TestStatusFromXY(t *testing.T) {
	tests := []struct {
		xy   string
		want Status
	}{
		{"??", StatusUntracked},
		{"AA", StatusConflicted},
		{"DD", StatusConflicted},
		{"AU", StatusConflicted},
		{"RM", StatusRenamed},
		{"MD", StatusDeleted},
		{"AM", StatusAdded},
		{"C ", StatusAdded},
		{"MM", StatusModified},
		{" T", StatusModified},
		{"  ", StatusTracked},
	}
	for _, tt := range tests {
		if got := statusFromXY(tt.xy[0], tt.xy[1]); got != tt.want {
			t.Errorf("statusFromXY(%q) = %s, want %s", tt.xy, got, tt.want)
		}
	}
}
