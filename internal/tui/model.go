package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"plantree/internal/config"
	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/sidebar"
	"plantree/internal/tree"
)

// operationTimeout bounds each rebuild, attach and detach started from the UI.
const operationTimeout = 30 * time.Second

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

// Coordinator is the slice of sidebar.Coordinator the TUI drives.
type Coordinator interface {
	State() sidebar.State
	Initialize(ctx context.Context) error
	Reload(ctx context.Context) error
	ClickProject(p *project.Project, double bool)
	ClickPlanFile(f scm.FileState)
	ClickProjectFile(p *project.Project, f scm.FileState, double bool)
	ToggleSettings()
	CloseSettings()
	AddProject()
	RemoveSelectedProject(ctx context.Context) error
	ToggleShowDeleted()
	ToggleShowNonPlanFiles()
}

// Attacher adds a project from the add dialog.
type Attacher interface {
	Attach(ctx context.Context, path, name string) (project.AttachedProject, error)
}

// StatusLevel is the severity shown in the status bar.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// PanelFocus says which panel receives navigation keys.
type PanelFocus int

const (
	FocusTree PanelFocus = iota
	FocusDetail
	FocusLogs
)

type detailMode int

const (
	detailNone detailMode = iota
	detailPlan
	detailProject
)

// Options wires a Model.
type Options struct {
	Config      *config.Config
	Coordinator Coordinator
	Projects    Attacher
	Logs        LogSource
	Logger      *logging.ScopedLogger
	// WebURL is shown in the header when the web API is listening.
	WebURL string
}

// Model represents the TUI application state.
type Model struct {
	width  int
	height int
	styles *Styles
	keys   keyMap
	help   help.Model

	coord    Coordinator
	projects Attacher
	logs     LogSource
	logger   *logging.ScopedLogger
	webURL   string

	// state is the last coordinator state this model rendered.
	state sidebar.State
	rows  []tree.Row
	// cursor is the highlighted row index. It moves with the arrow keys and is
	// independent of the coordinator's selection.
	cursor   int
	expanded map[string]bool

	panelFocus PanelFocus

	addOpen  bool
	addInput textinput.Model

	detailOpen     bool
	detailMode     detailMode
	detailTitle    string
	detailPath     string
	detailRoot     string
	detailViewport viewport.Model

	logPanelOpen  bool
	logViewport   viewport.Model
	logEntries    []logging.LogEntry
	hiddenLevels  map[string]bool
	logAutoScroll bool

	statusLevel   StatusLevel
	statusMessage string
	statusSpinner spinner.Model
	spinning      bool

	lastCtrlCTime time.Time
}

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	theme := "mocha"
	if opts.Config != nil {
		theme = opts.Config.Theme
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	styles := NewStyles(theme)

	input := textinput.New()
	input.Placeholder = "~/src/project"
	input.Prompt = "path: "
	input.CharLimit = 4096

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styles.AccentStyle()

	h := help.New()
	h.Styles.ShortKey = styles.AccentStyle()
	h.Styles.ShortDesc = styles.HelpStyle()
	h.Styles.ShortSeparator = styles.HelpStyle()

	m := Model{
		styles:         styles,
		keys:           defaultKeyMap(),
		help:           h,
		coord:          opts.Coordinator,
		projects:       opts.Projects,
		logs:           opts.Logs,
		logger:         logger,
		webURL:         opts.WebURL,
		expanded:       make(map[string]bool),
		addInput:       input,
		detailViewport: viewport.New(0, 0),
		logViewport:    viewport.New(0, 0),
		hiddenLevels:   make(map[string]bool),
		logAutoScroll:  true,
		statusSpinner:  s,
	}
	m.syncState()
	return m
}

// Init starts the first rebuild and the log pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.initialize(),
		consumeLogEntries(m.logs),
	)
}

func (m Model) initialize() tea.Cmd {
	coord := m.coord
	if coord == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		return reloadDoneMsg{initial: true, err: coord.Initialize(ctx)}
	}
}

func (m Model) reload() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		return reloadDoneMsg{err: coord.Reload(ctx)}
	}
}

func (m Model) attach(path string) tea.Cmd {
	projects := m.projects
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		ap, err := projects.Attach(ctx, path, "")
		return attachDoneMsg{path: path, attached: ap, err: err}
	}
}

func (m Model) removeSelected() tea.Cmd {
	coord := m.coord
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		return removeDoneMsg{err: coord.RemoveSelectedProject(ctx)}
	}
}

func (m Model) loadPlan(path string) tea.Cmd {
	width := m.detailViewport.Width
	dark := m.styles.IsDark()
	return func() tea.Msg {
		content, err := readPlan(path, width, dark)
		return planLoadedMsg{path: path, content: content, err: err}
	}
}

func copyToClipboard(path string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{path: path, err: clipboardWriteAll(path)}
	}
}

// syncState re-reads the coordinator and recomputes the visible rows,
// keeping the highlight on the same node when it survives.
func (m *Model) syncState() {
	if m.coord != nil {
		m.state = m.coord.State()
	}
	m.refreshRows()
}

func (m *Model) refreshRows() {
	var current string
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		current = m.rows[m.cursor].ID
	}

	m.rows = tree.Flatten(tree.Sorted(m.state.Snapshot), tree.Options{
		Expanded:         m.expanded,
		ShowDeleted:      m.state.ShowDeleted,
		ShowNonPlanFiles: m.state.ShowNonPlanFiles,
	})

	if current != "" {
		for i, row := range m.rows {
			if row.ID == current {
				m.cursor = i
				return
			}
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// highlighted returns the row under the keyboard highlight.
func (m Model) highlighted() (tree.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) isLoading() bool {
	return m.statusLevel == StatusLoading || m.state.Loading
}

// startSpinner ticks the status spinner unless it is already running.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.statusSpinner.Tick
}

func (m *Model) setStatus(level StatusLevel, msg string) tea.Cmd {
	m.statusLevel = level
	m.statusMessage = msg
	switch level {
	case StatusLoading:
		return m.startSpinner()
	case StatusSuccess, StatusInfo:
		return clearStatusAfter(msg)
	}
	return nil
}

func (m *Model) clearStatus() {
	m.statusLevel = StatusInfo
	m.statusMessage = ""
}

func clearStatusAfter(msg string) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{message: msg}
	})
}

// panels reports which optional panels are visible for layout.
func (m Model) panels() PanelState {
	return PanelState{
		Logs:     m.logPanelOpen,
		Detail:   m.detailOpen,
		Settings: m.state.SettingsOpen,
	}
}

// resizePanels fits the viewports to the current layout.
func (m *Model) resizePanels() {
	layout := ComputeLayout(m.width, m.height, m.panels())

	// Panel header (1 line) and left border plus padding.
	m.detailViewport.Width = max(layout.Detail.Width-4, 1)
	m.detailViewport.Height = max(layout.Detail.Height-1, 1)

	m.logViewport.Width = max(layout.Logs.Width, 1)
	m.logViewport.Height = max(layout.Logs.Height-1, 1)

	m.addInput.Width = max(m.width-12, 10)
	m.help.Width = m.width
}
