package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
)

func TestNavigation_MovesHighlightNotSelection(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "down")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m, _ = press(t, m, "down")
	if m.cursor != 1 {
		t.Errorf("cursor past end = %d, want 1", m.cursor)
	}
	m, _ = press(t, m, "k")
	if m.cursor != 0 {
		t.Errorf("cursor after k = %d, want 0", m.cursor)
	}
	if m.state.Selected != "" {
		t.Errorf("Selected = %q, arrow keys must not select", m.state.Selected)
	}
}

func TestExpandCollapse(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "right")
	want := []string{"/work/app", "/work/app/svc", "/work/app/login.plan", "/work/zeta"}
	got := rowIDs(m)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expanded rows = %v, want %v", got, want)
	}

	// Right on an open project steps into it.
	m, _ = press(t, m, "right")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	// Left on a collapsed child goes back to the parent.
	m, _ = press(t, m, "left")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	m, _ = press(t, m, "left")
	if len(m.rows) != 2 {
		t.Errorf("collapsed rows = %v, want 2 rows", rowIDs(m))
	}
}

func TestExpand_LeafProjectIsNoop(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	m, _ = press(t, m, "down", "right")
	if len(m.rows) != 2 {
		t.Errorf("rows = %v, zeta has nothing to expand", rowIDs(m))
	}
}

func TestSpace_SelectsProject(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "space")
	if m.state.Selected != "/work/app" {
		t.Errorf("Selected = %q, want /work/app", m.state.Selected)
	}
	if m.detailOpen {
		t.Error("a single click on a project must not open details")
	}
}

func TestEnter_OpensProjectDetails(t *testing.T) {
	m, h := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "enter")
	if m.state.Selected != "/work/app" {
		t.Errorf("Selected = %q, want /work/app", m.state.Selected)
	}

	msg := waitFor[viewDetailsMsg](t, h.msgs)
	if msg.attached.Root != "/work/app" {
		t.Errorf("routed root = %q", msg.attached.Root)
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)
	if !m.detailOpen || m.detailMode != detailProject {
		t.Fatalf("detail panel not open in project mode: open=%v mode=%v", m.detailOpen, m.detailMode)
	}
	view := m.detailViewport.View()
	for _, want := range []string{"/work/app", "Child projects", "Plan files"} {
		if !strings.Contains(view, want) {
			t.Errorf("details missing %q:\n%s", want, view)
		}
	}

	m, _ = press(t, m, "esc")
	if m.detailOpen {
		t.Error("esc should close the detail panel")
	}
}

func TestEnter_PlanFileOpensViewer(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(planPath, []byte("step one: log in\nstep two: check out\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ap := project.AttachedProject{Root: dir}
	p := project.New(ap)
	p.PlanFiles = []scm.FileState{{File: planPath, Status: scm.StatusTracked}}

	m, h := newTestModel(t, []tree.ProjectDetails{{Project: p, Attached: ap}})
	m, _ = press(t, m, "right", "down", "space")
	if m.state.Selected != planPath {
		t.Fatalf("Selected = %q, want %q", m.state.Selected, planPath)
	}

	// A single click on a plan opens it too.
	msg := waitFor[viewPlanMsg](t, h.msgs)
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if !m.detailOpen || m.detailMode != detailPlan {
		t.Fatal("plan viewer not open")
	}
	if m.detailTitle != "plan.txt" {
		t.Errorf("detailTitle = %q", m.detailTitle)
	}

	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("loadPlan produced %d messages", len(msgs))
	}
	updated, _ = m.Update(msgs[0])
	m = updated.(Model)
	if !strings.Contains(m.detailViewport.View(), "step one: log in") {
		t.Errorf("viewer content:\n%s", m.detailViewport.View())
	}
}

func TestPlanLoaded_StaleResultIgnored(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(viewPlanMsg{path: "/work/app/login.plan"})
	m = updated.(Model)

	updated, _ = m.Update(planLoadedMsg{path: "/work/app/other.plan", content: "other"})
	m = updated.(Model)
	if strings.Contains(m.detailViewport.View(), "other") {
		t.Error("a result for a different path must not replace the viewer content")
	}
}

func TestPlanLoaded_ErrorShowsStatus(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(viewPlanMsg{path: "/work/app/login.plan"})
	m = updated.(Model)

	updated, _ = m.Update(planLoadedMsg{path: "/work/app/login.plan", err: os.ErrNotExist})
	m = updated.(Model)
	if m.statusLevel != StatusError {
		t.Errorf("statusLevel = %v, want StatusError", m.statusLevel)
	}
}

func TestToggleShowDeleted(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	m, _ = press(t, m, "right", "d")

	if !m.state.ShowDeleted {
		t.Fatal("ShowDeleted should be on")
	}
	found := false
	for _, id := range rowIDs(m) {
		if id == "/work/app/old.plan" {
			found = true
		}
	}
	if !found {
		t.Errorf("deleted plan hidden after toggle: %v", rowIDs(m))
	}

	m, _ = press(t, m, "d")
	for _, id := range rowIDs(m) {
		if id == "/work/app/old.plan" {
			t.Error("deleted plan still shown after second toggle")
		}
	}
}

func TestToggleShowNonPlanFiles(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	m, _ = press(t, m, "right", "f")

	if !m.state.ShowNonPlanFiles {
		t.Fatal("ShowNonPlanFiles should be on")
	}
	last := m.rows[len(m.rows)-2]
	if last.ID != "/work/app/main.go" || last.Kind != tree.RowProjectFile {
		t.Errorf("expected main.go after the plans, rows = %v", rowIDs(m))
	}
}

func TestSettings_ToggleAndEscape(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "s")
	if !m.state.SettingsOpen {
		t.Fatal("settings should be open")
	}
	if !strings.Contains(m.View(), "show deleted files") {
		t.Error("settings panel not rendered")
	}

	m, _ = press(t, m, "esc")
	if m.state.SettingsOpen {
		t.Error("esc should close settings")
	}
}

func TestSettings_ClosedByClick(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	m, _ = press(t, m, "s", "space")
	if m.state.SettingsOpen {
		t.Error("a click should close settings")
	}
}

func TestAddDialog_AttachesPath(t *testing.T) {
	m, h := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "a")
	updated, _ := m.Update(waitFor[openAddDialogMsg](t, h.msgs))
	m = updated.(Model)
	if !m.addOpen {
		t.Fatal("add dialog should be open")
	}

	m, _ = press(t, m, "/", "t", "m", "p")
	m, cmd := press(t, m, "enter")
	if m.addOpen {
		t.Error("dialog should close on submit")
	}
	if m.statusLevel != StatusLoading {
		t.Errorf("statusLevel = %v, want StatusLoading", m.statusLevel)
	}

	var done *attachDoneMsg
	for _, msg := range runCmd(cmd) {
		if d, ok := msg.(attachDoneMsg); ok {
			done = &d
		}
	}
	if done == nil {
		t.Fatal("no attachDoneMsg from submit")
	}
	if len(h.attacher.paths) != 1 || h.attacher.paths[0] != "/tmp" {
		t.Errorf("Attach calls = %v, want [/tmp]", h.attacher.paths)
	}

	updated, _ = m.Update(*done)
	m = updated.(Model)
	if m.statusLevel != StatusSuccess {
		t.Errorf("statusLevel = %v, want StatusSuccess", m.statusLevel)
	}
}

func TestAddDialog_EscapeCancels(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(openAddDialogMsg{})
	m = updated.(Model)

	m, _ = press(t, m, "x", "esc")
	if m.addOpen {
		t.Error("esc should close the dialog")
	}
	if m.statusLevel == StatusLoading {
		t.Error("cancel must not start an attach")
	}
}

func TestAddDialog_KeysDoNotReachTree(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(openAddDialogMsg{})
	m = updated.(Model)

	m, _ = press(t, m, "d")
	if m.state.ShowDeleted {
		t.Error("typing in the dialog must not toggle settings")
	}
	if m.addInput.Value() != "d" {
		t.Errorf("input = %q, want d", m.addInput.Value())
	}
}

func TestAttachDone_Error(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(attachDoneMsg{path: "/nope", err: project.ErrAlreadyAttached})
	m = updated.(Model)
	if m.statusLevel != StatusError {
		t.Errorf("statusLevel = %v, want StatusError", m.statusLevel)
	}
}

func TestRemove_RequiresAttachedSelection(t *testing.T) {
	m, h := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "x")
	if len(h.remover.roots) != 0 {
		t.Errorf("Detach called with nothing selected: %v", h.remover.roots)
	}
	if m.statusLevel != StatusInfo || m.statusMessage == "" {
		t.Errorf("expected an info hint, got %v %q", m.statusLevel, m.statusMessage)
	}
}

func TestRemove_DetachesSelectedProject(t *testing.T) {
	m, h := newTestModel(t, sampleDetails())

	m, _ = press(t, m, "space")
	m, cmd := press(t, m, "x")
	if m.statusLevel != StatusLoading {
		t.Errorf("statusLevel = %v, want StatusLoading", m.statusLevel)
	}
	for _, msg := range runCmd(cmd) {
		if done, ok := msg.(removeDoneMsg); ok {
			updated, _ := m.Update(done)
			m = updated.(Model)
		}
	}
	if len(h.remover.roots) != 1 || h.remover.roots[0] != "/work/app" {
		t.Errorf("Detach calls = %v, want [/work/app]", h.remover.roots)
	}
	if m.statusLevel != StatusSuccess {
		t.Errorf("statusLevel = %v, want StatusSuccess", m.statusLevel)
	}
}

func TestReload(t *testing.T) {
	m, h := newTestModel(t, nil)
	h.builder.set(sampleDetails())

	m, cmd := press(t, m, "r")
	if m.statusLevel != StatusLoading {
		t.Errorf("statusLevel = %v, want StatusLoading", m.statusLevel)
	}
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(reloadDoneMsg); ok {
			updated, _ := m.Update(stateChangedMsg{})
			m = updated.(Model)
			updated, _ = m.Update(msg)
			m = updated.(Model)
		}
	}
	if len(m.rows) != 2 {
		t.Errorf("rows after reload = %v", rowIDs(m))
	}
	if m.statusLevel != StatusSuccess {
		t.Errorf("statusLevel = %v, want StatusSuccess", m.statusLevel)
	}
}

func TestReload_FailureReportedOnce(t *testing.T) {
	for _, errorFirst := range []bool{true, false} {
		m, h := newTestModel(t, sampleDetails())
		h.builder.mu.Lock()
		h.builder.err = errors.New("boom")
		h.builder.mu.Unlock()

		m, cmd := press(t, m, "r")
		var done tea.Msg
		for _, msg := range runCmd(cmd) {
			if _, ok := msg.(reloadDoneMsg); ok {
				done = msg
			}
		}
		if done == nil {
			t.Fatal("no reloadDoneMsg")
		}
		reported := waitFor[errorMsg](t, h.msgs)

		order := []tea.Msg{reported, done}
		if !errorFirst {
			order = []tea.Msg{done, reported}
		}
		for _, msg := range order {
			updated, _ := m.Update(msg)
			m = updated.(Model)
		}

		if m.statusLevel != StatusError {
			t.Errorf("errorFirst=%v: statusLevel = %v, want StatusError", errorFirst, m.statusLevel)
		}
		if m.statusMessage != "rebuild tree: boom" {
			t.Errorf("errorFirst=%v: statusMessage = %q", errorFirst, m.statusMessage)
		}
		if len(m.rows) != 2 {
			t.Errorf("errorFirst=%v: previous rows should stay, got %v", errorFirst, rowIDs(m))
		}
	}
}

func TestCopy_WritesSelection(t *testing.T) {
	var copied string
	orig := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = orig })

	m, _ := newTestModel(t, sampleDetails())
	m, cmd := press(t, m, "y")
	if cmd == nil || m.statusMessage != "Nothing selected" {
		t.Errorf("copy with no selection: status %q", m.statusMessage)
	}

	m, _ = press(t, m, "space")
	m, cmd = press(t, m, "y")
	msgs := runCmd(cmd)
	if copied != "/work/app" {
		t.Errorf("copied %q, want /work/app", copied)
	}
	updated, _ := m.Update(msgs[0])
	m = updated.(Model)
	if m.statusLevel != StatusSuccess {
		t.Errorf("statusLevel = %v, want StatusSuccess", m.statusLevel)
	}
}

func TestQuit_CtrlD(t *testing.T) {
	m, _ := newTestModel(t, nil)
	_, cmd := press(t, m, "ctrl+d")
	if cmd == nil {
		t.Fatal("ctrl+d should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+d should return tea.Quit")
	}
}

func TestQuit_DoubleCtrlC(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, cmd := press(t, m, "ctrl+c")
	if m.statusMessage != quitHint {
		t.Errorf("statusMessage = %q, want quit hint", m.statusMessage)
	}
	// The returned command only schedules the hint's removal.
	_ = cmd

	_, cmd = press(t, m, "ctrl+c")
	if cmd == nil {
		t.Fatal("second ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second ctrl+c should return tea.Quit")
	}
}

func TestErrorMsg_EscClears(t *testing.T) {
	m, _ := newTestModel(t, nil)
	updated, _ := m.Update(errorMsg{op: "rebuild tree", err: errors.New("boom")})
	m = updated.(Model)

	if m.statusLevel != StatusError || !strings.Contains(m.statusMessage, "boom") {
		t.Fatalf("status = %v %q", m.statusLevel, m.statusMessage)
	}
	m, _ = press(t, m, "esc")
	if m.statusLevel != StatusInfo || m.statusMessage != "" {
		t.Errorf("status after esc = %v %q", m.statusLevel, m.statusMessage)
	}
}

func TestClearStatusMsg_OnlyClearsMatchingMessage(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.statusLevel = StatusSuccess
	m.statusMessage = "Copied /a"

	updated, _ := m.Update(clearStatusMsg{message: "something older"})
	m = updated.(Model)
	if m.statusMessage != "Copied /a" {
		t.Error("stale clear should not clobber the current status")
	}

	updated, _ = m.Update(clearStatusMsg{message: "Copied /a"})
	m = updated.(Model)
	if m.statusMessage != "" {
		t.Errorf("statusMessage = %q, want cleared", m.statusMessage)
	}
}

func TestLogPanel_ToggleAndFocus(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		startOpen bool
		wantOpen  bool
	}{
		{"press l opens log panel", "l", false, true},
		{"press l closes log panel", "l", true, false},
		{"press L opens log panel", "L", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, nil)
			m.logPanelOpen = tt.startOpen

			m, _ = press(t, m, tt.key)
			if m.logPanelOpen != tt.wantOpen {
				t.Errorf("logPanelOpen = %v, want %v", m.logPanelOpen, tt.wantOpen)
			}
			wantFocus := FocusTree
			if tt.wantOpen {
				wantFocus = FocusLogs
			}
			if m.panelFocus != wantFocus {
				t.Errorf("panelFocus = %v, want %v", m.panelFocus, wantFocus)
			}
		})
	}
}

func TestCycleFocus(t *testing.T) {
	m, _ := newTestModel(t, sampleDetails())
	updated, _ := m.Update(viewDetailsMsg{attached: project.AttachedProject{Root: "/work/app"}})
	m = updated.(Model)
	m, _ = press(t, m, "l", "tab")

	if m.panelFocus != FocusTree {
		t.Errorf("after logs, tab → %v, want FocusTree", m.panelFocus)
	}
	m, _ = press(t, m, "tab")
	if m.panelFocus != FocusDetail {
		t.Errorf("panelFocus = %v, want FocusDetail", m.panelFocus)
	}

	// Arrow keys scroll the detail panel instead of moving the tree.
	m, _ = press(t, m, "down")
	if m.cursor != 0 {
		t.Errorf("tree cursor moved while detail focused: %d", m.cursor)
	}
}
