// pattern: Imperative Shell

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/tree"
)

// doubleCtrlCWindow is the maximum time between two ctrl+c presses to trigger quit.
const doubleCtrlCWindow = 500 * time.Millisecond

const quitHint = "ctrl+c again to quit"

// stateChangedMsg asks the model to re-read coordinator state.
type stateChangedMsg struct{}

type viewPlanMsg struct {
	path string
}

type viewDetailsMsg struct {
	attached project.AttachedProject
}

type openAddDialogMsg struct{}

type errorMsg struct {
	op  string
	err error
}

type reloadDoneMsg struct {
	initial bool
	err     error
}

type attachDoneMsg struct {
	path     string
	attached project.AttachedProject
	err      error
}

type removeDoneMsg struct {
	err error
}

type planLoadedMsg struct {
	path    string
	content string
	err     error
}

type clipboardMsg struct {
	path string
	err  error
}

// logEntriesMsg delivers log entries from the logging channel.
type logEntriesMsg struct {
	entries []logging.LogEntry
}

// clearStatusMsg clears the status bar if it still shows message.
type clearStatusMsg struct {
	message string
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		if m.logPanelOpen {
			m.updateLogViewportContent()
		}
		if m.detailOpen && m.detailMode == detailPlan {
			// Re-render at the new width.
			return m, m.loadPlan(m.detailPath)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.isLoading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.statusSpinner, cmd = m.statusSpinner.Update(msg)
		return m, cmd

	case stateChangedMsg:
		settingsWas := m.state.SettingsOpen
		m.syncState()
		if settingsWas != m.state.SettingsOpen {
			m.resizePanels()
		}
		if m.detailOpen && m.detailMode == detailProject {
			m.updateDetailContent()
		}
		if m.state.Loading {
			cmd := m.startSpinner()
			return m, cmd
		}
		return m, nil

	case viewPlanMsg:
		m.openDetail(detailPlan, filepath.Base(msg.path))
		m.detailPath = msg.path
		m.detailViewport.SetContent(m.styles.HelpStyle().Render("Loading " + msg.path + "…"))
		return m, m.loadPlan(msg.path)

	case planLoadedMsg:
		if !m.detailOpen || m.detailMode != detailPlan || msg.path != m.detailPath {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("plan load failed", "path", msg.path, "error", msg.err)
			m.detailViewport.SetContent(m.styles.ErrorStyle().Render(msg.err.Error()))
			cmd := m.setStatus(StatusError, "Could not open "+filepath.Base(msg.path))
			return m, cmd
		}
		content := msg.content
		if strings.TrimSpace(content) == "" {
			content = m.styles.HelpStyle().Render("(empty plan)")
		}
		m.detailViewport.SetContent(content)
		m.detailViewport.GotoTop()
		return m, nil

	case viewDetailsMsg:
		m.openDetail(detailProject, msg.attached.DisplayName())
		m.detailRoot = msg.attached.Root
		m.updateDetailContent()
		return m, nil

	case openAddDialogMsg:
		m.addOpen = true
		m.addInput.Reset()
		cmd := m.addInput.Focus()
		return m, cmd

	case attachDoneMsg:
		if msg.err != nil {
			m.logger.Error("attach failed", "path", msg.path, "error", msg.err)
			cmd := m.setStatus(StatusError, fmt.Sprintf("Attach failed: %v", msg.err))
			return m, cmd
		}
		m.logger.Info("project attached", "root", msg.attached.Root)
		cmd := m.setStatus(StatusSuccess, "Attached "+msg.attached.DisplayName())
		return m, cmd

	case removeDoneMsg:
		if msg.err != nil {
			cmd := m.setStatus(StatusError, msg.err.Error())
			return m, cmd
		}
		cmd := m.setStatus(StatusSuccess, "Project removed")
		return m, cmd

	case reloadDoneMsg:
		if msg.err != nil {
			// The coordinator reports the failure itself as an errorMsg.
			m.logger.Debug("reload finished with error", "error", msg.err)
			if m.statusLevel == StatusLoading {
				m.clearStatus()
			}
			return m, nil
		}
		if msg.initial {
			if m.statusLevel == StatusLoading {
				m.clearStatus()
			}
			return m, nil
		}
		cmd := m.setStatus(StatusSuccess, fmt.Sprintf("Reloaded %d projects", len(m.state.Snapshot)))
		return m, cmd

	case errorMsg:
		cmd := m.setStatus(StatusError, fmt.Sprintf("%s: %v", msg.op, msg.err))
		return m, cmd

	case clipboardMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard write failed", "error", msg.err)
			cmd := m.setStatus(StatusError, "Copy failed: "+msg.err.Error())
			return m, cmd
		}
		cmd := m.setStatus(StatusSuccess, "Copied "+msg.path)
		return m, cmd

	case logEntriesMsg:
		for _, entry := range msg.entries {
			m.addLogEntry(entry)
		}
		if m.logPanelOpen {
			m.updateLogViewportContent()
		}
		return m, consumeLogEntries(m.logs)

	case clearStatusMsg:
		if m.statusMessage == msg.message && m.statusLevel != StatusLoading && m.statusLevel != StatusError {
			m.clearStatus()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.logger.Debug("key pressed", "key", msg.String(), "focus", m.panelFocus, "addOpen", m.addOpen)

	// Quit shortcuts: ctrl+d always, ctrl+c on double press.
	if msg.Type == tea.KeyCtrlD {
		m.logger.Debug("quit via ctrl+d")
		return m, tea.Quit
	}
	if msg.Type == tea.KeyCtrlC {
		now := time.Now()
		if !m.lastCtrlCTime.IsZero() && now.Sub(m.lastCtrlCTime) <= doubleCtrlCWindow {
			m.logger.Debug("quit via double ctrl+c")
			return m, tea.Quit
		}
		m.lastCtrlCTime = now
		cmd := m.setStatus(StatusInfo, quitHint)
		return m, cmd
	}

	if m.addOpen {
		return m.handleAddKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.handleEscape()
	case key.Matches(msg, m.keys.NextPanel):
		m.cycleFocus()
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.toggleLogPanel()
		return m, nil
	}

	switch m.panelFocus {
	case FocusLogs:
		if m.handleLogKey(msg) {
			return m, nil
		}
	case FocusDetail:
		if m.handleDetailKey(msg) {
			return m, nil
		}
	}

	return m.handleTreeKey(msg)
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(m.rows)-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		m.expand()
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		m.collapse()
		return m, nil

	case key.Matches(msg, m.keys.Click):
		m.click(false)
		return m, nil

	case key.Matches(msg, m.keys.Open):
		m.click(true)
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.coord.ToggleSettings()
		m.syncState()
		m.resizePanels()
		return m, nil

	case key.Matches(msg, m.keys.Add):
		if m.projects == nil {
			cmd := m.setStatus(StatusError, "Adding projects is unavailable")
			return m, cmd
		}
		m.coord.AddProject()
		m.syncState()
		m.resizePanels()
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		if !m.attachedSelected() {
			m.coord.CloseSettings()
			m.syncState()
			m.resizePanels()
			cmd := m.setStatus(StatusInfo, "Select an attached project to remove it")
			return m, cmd
		}
		spin := m.setStatus(StatusLoading, "Removing "+m.state.Selected)
		return m, tea.Batch(spin, m.removeSelected())

	case key.Matches(msg, m.keys.ToggleDeleted):
		m.coord.ToggleShowDeleted()
		m.syncState()
		m.resizePanels()
		if m.state.ShowDeleted {
			cmd := m.setStatus(StatusInfo, "Showing deleted files")
			return m, cmd
		}
		cmd := m.setStatus(StatusInfo, "Hiding deleted files")
		return m, cmd

	case key.Matches(msg, m.keys.ToggleFiles):
		m.coord.ToggleShowNonPlanFiles()
		m.syncState()
		m.resizePanels()
		if m.state.ShowNonPlanFiles {
			cmd := m.setStatus(StatusInfo, "Showing all project files")
			return m, cmd
		}
		cmd := m.setStatus(StatusInfo, "Showing plan files only")
		return m, cmd

	case key.Matches(msg, m.keys.Reload):
		spin := m.setStatus(StatusLoading, "Reloading projects")
		return m, tea.Batch(spin, m.reload())

	case key.Matches(msg, m.keys.Copy):
		if m.state.Selected == "" {
			cmd := m.setStatus(StatusInfo, "Nothing selected")
			return m, cmd
		}
		return m, copyToClipboard(m.state.Selected)
	}

	return m, nil
}

// click forwards the highlighted row to the coordinator as a single or
// double click.
func (m *Model) click(double bool) {
	row, ok := m.highlighted()
	if !ok {
		return
	}
	switch row.Kind {
	case tree.RowProject:
		m.coord.ClickProject(row.Project, double)
	case tree.RowPlanFile:
		m.coord.ClickPlanFile(row.File)
	case tree.RowProjectFile:
		m.coord.ClickProjectFile(row.Project, row.File, double)
	}
	m.syncState()
	m.resizePanels()
}

// expand opens the highlighted project, or steps into it when already open.
func (m *Model) expand() {
	row, ok := m.highlighted()
	if !ok || row.Kind != tree.RowProject || !row.HasChildren {
		return
	}
	if !m.expanded[row.ID] {
		m.expanded[row.ID] = true
		m.refreshRows()
		return
	}
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
}

// collapse closes the highlighted project, or moves to the parent project.
func (m *Model) collapse() {
	row, ok := m.highlighted()
	if !ok {
		return
	}
	if row.Kind == tree.RowProject && m.expanded[row.ID] {
		delete(m.expanded, row.ID)
		m.refreshRows()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Kind == tree.RowProject && m.rows[i].Depth < row.Depth {
			m.cursor = i
			return
		}
	}
}

func (m Model) attachedSelected() bool {
	if m.state.Selected == "" {
		return false
	}
	for _, d := range m.state.Snapshot {
		if d.Attached.Root == m.state.Selected {
			return true
		}
	}
	return false
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeAddDialog()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.addInput.Value())
		m.closeAddDialog()
		if path == "" {
			return m, nil
		}
		spin := m.setStatus(StatusLoading, "Attaching "+path)
		return m, tea.Batch(spin, m.attach(path))
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m *Model) closeAddDialog() {
	m.addOpen = false
	m.addInput.Blur()
}

// handleEscape closes the innermost open panel.
func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	switch {
	case m.state.SettingsOpen:
		m.coord.CloseSettings()
		m.syncState()
		m.resizePanels()
	case m.detailOpen:
		m.closeDetail()
	case m.panelFocus != FocusTree:
		m.panelFocus = FocusTree
	case m.statusLevel == StatusError:
		m.clearStatus()
	}
	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.detailViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detailViewport.GotoBottom()
	default:
		return false
	}
	return true
}

func (m *Model) handleLogKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "1":
		m.toggleLogLevel("DEBUG")
		return true
	case "2":
		m.toggleLogLevel("INFO")
		return true
	case "3":
		m.toggleLogLevel("WARN")
		return true
	case "4":
		m.toggleLogLevel("ERROR")
		return true
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logAutoScroll = false
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logAutoScroll = m.logViewport.AtBottom()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logAutoScroll = false
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logAutoScroll = true
	default:
		return false
	}
	return true
}

func (m *Model) toggleLogPanel() {
	m.logPanelOpen = !m.logPanelOpen
	if m.logPanelOpen {
		m.panelFocus = FocusLogs
		m.logAutoScroll = true
	} else if m.panelFocus == FocusLogs {
		m.panelFocus = FocusTree
	}
	m.resizePanels()
	if m.logPanelOpen {
		m.updateLogViewportContent()
	}
}

// cycleFocus moves focus to the next visible panel.
func (m *Model) cycleFocus() {
	order := []PanelFocus{FocusTree}
	if m.detailOpen {
		order = append(order, FocusDetail)
	}
	if m.logPanelOpen {
		order = append(order, FocusLogs)
	}
	for i, f := range order {
		if f == m.panelFocus {
			m.panelFocus = order[(i+1)%len(order)]
			return
		}
	}
	m.panelFocus = FocusTree
}

func (m *Model) openDetail(mode detailMode, title string) {
	m.detailOpen = true
	m.detailMode = mode
	m.detailTitle = title
	m.detailPath = ""
	m.detailRoot = ""
	m.resizePanels()
}

func (m *Model) closeDetail() {
	m.detailOpen = false
	m.detailMode = detailNone
	m.detailPath = ""
	m.detailRoot = ""
	if m.panelFocus == FocusDetail {
		m.panelFocus = FocusTree
	}
	m.resizePanels()
}
