// pattern: Imperative Shell

package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "logs", "plantree.log")
	mgr, err := NewManager(Config{
		FilePath:       logFile,
		MaxSizeMB:      1,
		MaxBackups:     1,
		MaxAgeDays:     1,
		ChannelBufSize: 50,
		Level:          "debug",
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr, logFile
}

func TestNewManager_RequiresFilePath(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Fatal("expected error for empty FilePath")
	}
}

func TestNewManager_CreatesLogDirectory(t *testing.T) {
	_, logFile := newTestManager(t)
	if _, err := os.Stat(filepath.Dir(logFile)); err != nil {
		t.Fatalf("log directory not created: %v", err)
	}
}

func TestManager_For(t *testing.T) {
	mgr, _ := newTestManager(t)

	logger := mgr.For("project.watch")
	if logger == nil {
		t.Fatal("For() returned nil")
	}
	if logger.Scope() != "project.watch" {
		t.Errorf("Scope() = %q, want project.watch", logger.Scope())
	}
	if mgr.For("project.watch") != logger {
		t.Error("For() should return cached logger for same scope")
	}
	if mgr.For("tree") == logger {
		t.Error("For() should return different logger for different scope")
	}
}

func TestManager_LoggingToChannel(t *testing.T) {
	mgr, _ := newTestManager(t)

	mgr.For("sidebar").Info("snapshot applied", "generation", 3)

	select {
	case entry := <-mgr.Entries():
		if entry.Message != "snapshot applied" {
			t.Errorf("Message = %q", entry.Message)
		}
		if entry.Scope != "sidebar" {
			t.Errorf("Scope = %q, want sidebar", entry.Scope)
		}
		if entry.Fields["generation"] != float64(3) {
			t.Errorf("Fields[generation] = %v", entry.Fields["generation"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for log entry")
	}
}

func TestManager_LoggingToFile(t *testing.T) {
	mgr, logFile := newTestManager(t)

	mgr.For("tree").Warn("refresh failed", "root", "/a")
	_ = mgr.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	for _, want := range []string{`"msg":"refresh failed"`, `"logger":"tree"`, `"root":"/a"`, `"level":"warn"`} {
		if !strings.Contains(content, want) {
			t.Errorf("log file should contain %s, got %s", want, content)
		}
	}
}

func TestManager_LevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "plantree.log")
	mgr, err := NewManager(Config{FilePath: logFile, Level: "warn", ChannelBufSize: 10})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = mgr.Close() }()

	logger := mgr.For("app")
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Error("shown")

	select {
	case entry := <-mgr.Entries():
		if entry.Message != "shown" {
			t.Errorf("expected only the error entry, got %q", entry.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for log entry")
	}
}

func TestManager_Cleanup(t *testing.T) {
	mgr, _ := newTestManager(t)

	watch := mgr.For("project.watch")
	tree := mgr.For("tree")

	mgr.Cleanup("project")

	if mgr.For("project.watch") == watch {
		t.Error("project.watch should have been evicted")
	}
	if mgr.For("tree") != tree {
		t.Error("tree should still be cached")
	}
}

func TestScopedLogger_ReportError(t *testing.T) {
	lm := NewTestLogManager(10)
	defer func() { _ = lm.Close() }()

	logger := lm.For("sidebar")
	logger.ReportError("rebuild", nil)
	logger.ReportError("rebuild", errors.New("boom"))

	entries := lm.Drain()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (nil errors ignored), got %d", len(entries))
	}
	if entries[0].Message != "rebuild failed" || !entries[0].IsError() {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Fields["error"] != "boom" {
		t.Errorf("error field = %v, want boom", entries[0].Fields["error"])
	}
}
