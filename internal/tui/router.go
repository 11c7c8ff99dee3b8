// pattern: Imperative Shell

package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/sidebar"
)

// Router turns coordinator callbacks into program messages. It implements
// sidebar.Router, sidebar.Dialog and sidebar.ErrorReporter, and its
// StateChanged method is meant for sidebar.Coordinator.Subscribe.
//
// Callbacks can fire from inside Update, where a synchronous Program.Send
// would deadlock, so every message is delivered from its own goroutine.
type Router struct {
	logger *logging.ScopedLogger

	mu   sync.RWMutex
	send func(tea.Msg)
}

var (
	_ sidebar.Router        = (*Router)(nil)
	_ sidebar.Dialog        = (*Router)(nil)
	_ sidebar.ErrorReporter = (*Router)(nil)
)

// NewRouter creates a Router that drops messages until Bind is called.
func NewRouter(logger *logging.ScopedLogger) *Router {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Router{logger: logger}
}

// Bind sets the function messages are delivered through, usually
// Program.Send.
func (r *Router) Bind(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

// ViewProjectDetails opens the details panel for ap.
func (r *Router) ViewProjectDetails(ap project.AttachedProject) {
	r.dispatch(viewDetailsMsg{attached: ap})
}

// ViewTestPlan opens the plan viewer on path.
func (r *Router) ViewTestPlan(path string) {
	r.dispatch(viewPlanMsg{path: path})
}

// AddProjectDialog opens the add-project prompt.
func (r *Router) AddProjectDialog() {
	r.dispatch(openAddDialogMsg{})
}

// ReportError logs the failure and shows it in the status bar.
func (r *Router) ReportError(op string, err error) {
	if err == nil {
		return
	}
	r.logger.Error(op+" failed", "error", err)
	r.dispatch(errorMsg{op: op, err: err})
}

// StateChanged asks the model to re-read coordinator state.
func (r *Router) StateChanged(sidebar.State) {
	r.dispatch(stateChangedMsg{})
}

func (r *Router) dispatch(msg tea.Msg) {
	r.mu.RLock()
	send := r.send
	r.mu.RUnlock()

	if send == nil {
		r.logger.Debug("dropping message before bind", "type", msgName(msg))
		return
	}
	go send(msg)
}

func msgName(msg tea.Msg) string {
	switch msg.(type) {
	case viewDetailsMsg:
		return "view details"
	case viewPlanMsg:
		return "view plan"
	case openAddDialogMsg:
		return "add dialog"
	case errorMsg:
		return "error"
	case stateChangedMsg:
		return "state changed"
	default:
		return "unknown"
	}
}
