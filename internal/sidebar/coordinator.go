// pattern: Imperative Shell

// Package sidebar coordinates the project tree snapshot with the selection
// cursor and the sidebar's settings panel.
package sidebar

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
)

// Lister returns the currently attached projects.
type Lister interface {
	List(ctx context.Context) ([]project.AttachedProject, error)
}

// Builder produces a refreshed snapshot from attached projects.
type Builder interface {
	Build(ctx context.Context, attached []project.AttachedProject) ([]tree.ProjectDetails, error)
}

// Router opens views in response to clicks. Calls must not block.
type Router interface {
	ViewProjectDetails(ap project.AttachedProject)
	ViewTestPlan(path string)
}

// Dialog opens the add-project prompt. Its result arrives later as an
// attached-projects update.
type Dialog interface {
	AddProjectDialog()
}

// ErrorReporter surfaces failures to the user.
type ErrorReporter interface {
	ReportError(op string, err error)
}

// Remover detaches an attached project.
type Remover interface {
	Detach(ctx context.Context, root string) error
}

// State is the coordinator's observable state.
type State struct {
	Snapshot []tree.ProjectDetails
	// Selected is a project root or file path; "" means nothing is selected.
	Selected         string
	ShowDeleted      bool
	ShowNonPlanFiles bool
	SettingsOpen     bool
	// Loading is set while the newest dispatched rebuild is running.
	Loading bool
	// Generation is the rebuild generation Snapshot came from.
	Generation uint64
	Err        error
}

// Config wires a Coordinator's collaborators. Nil collaborators are
// replaced with no-ops.
type Config struct {
	Lister   Lister
	Builder  Builder
	Router   Router
	Dialog   Dialog
	Remover  Remover
	Reporter ErrorReporter
	Logger   *logging.ScopedLogger
	// ClearDangling clears the cursor when a rebuild drops the selected node.
	ClearDangling bool
}

// Coordinator owns the tree snapshot and the selection cursor. All state
// changes go through its methods; subscribers see every change.
type Coordinator struct {
	lister        Lister
	builder       Builder
	router        Router
	dialog        Dialog
	remover       Remover
	reporter      ErrorReporter
	logger        *logging.ScopedLogger
	clearDangling bool

	mu         sync.Mutex
	state      State
	dispatched uint64
	subs       map[int]func(State)
	nextSub    int
}

// New creates a Coordinator with an empty snapshot and no selection.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		lister:        cfg.Lister,
		builder:       cfg.Builder,
		router:        cfg.Router,
		dialog:        cfg.Dialog,
		remover:       cfg.Remover,
		reporter:      cfg.Reporter,
		logger:        cfg.Logger,
		clearDangling: cfg.ClearDangling,
		subs:          make(map[int]func(State)),
	}
	if c.logger == nil {
		c.logger = logging.NopLogger()
	}
	if c.router == nil {
		c.router = nopRouter{}
	}
	if c.dialog == nil {
		c.dialog = nopDialog{}
	}
	if c.reporter == nil {
		c.reporter = c.logger
	}
	return c
}

// Initialize lists the attached projects and adopts the built tree. A
// listing failure leaves the snapshot empty.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.logger.Info("initializing")
	return c.Reload(ctx)
}

// Reload lists the attached projects again and rebuilds the tree, keeping
// the current snapshot on failure.
func (c *Coordinator) Reload(ctx context.Context) error {
	gen := c.BeginRebuild()

	attached, err := c.list(ctx)
	if err != nil {
		err = fmt.Errorf("list attached projects: %w", err)
		c.apply(gen, nil, err, "list projects")
		return err
	}

	details, err := c.build(ctx, attached)
	c.apply(gen, details, err, "rebuild tree")
	return err
}

// HandleProjectsUpdated rebuilds the tree from evt and swaps it in unless a
// newer rebuild was dispatched meanwhile.
func (c *Coordinator) HandleProjectsUpdated(ctx context.Context, evt project.AttachedProjectsUpdated) error {
	return c.DispatchProjectsUpdated(evt)(ctx)
}

// DispatchProjectsUpdated closes the settings panel and takes the rebuild
// generation for evt now, in event order. The returned func builds the tree
// and applies it; it may run on another goroutine.
func (c *Coordinator) DispatchProjectsUpdated(evt project.AttachedProjectsUpdated) func(ctx context.Context) error {
	c.logger.Debug("attached projects updated", "projects", len(evt.Projects))
	c.update(func(s *State) { s.SettingsOpen = false })

	gen := c.BeginRebuild()
	attached := slices.Clone(evt.Projects)
	return func(ctx context.Context) error {
		details, err := c.build(ctx, attached)
		c.apply(gen, details, err, "rebuild tree")
		return err
	}
}

// BeginRebuild dispatches a new rebuild generation and marks the
// coordinator as loading.
func (c *Coordinator) BeginRebuild() uint64 {
	c.mu.Lock()
	c.dispatched++
	gen := c.dispatched
	c.state.Loading = true
	s := c.state
	c.mu.Unlock()

	c.notify(s)
	return gen
}

// ApplyRebuild adopts the result of rebuild gen. It reports false, and
// changes nothing, when a newer rebuild has been dispatched since. A failed
// rebuild keeps the previous snapshot.
func (c *Coordinator) ApplyRebuild(gen uint64, details []tree.ProjectDetails, err error) bool {
	return c.apply(gen, details, err, "rebuild tree")
}

func (c *Coordinator) apply(gen uint64, details []tree.ProjectDetails, err error, op string) bool {
	c.mu.Lock()
	if gen != c.dispatched {
		newest := c.dispatched
		c.mu.Unlock()
		c.logger.Debug("discarding stale rebuild", "generation", gen, "newest", newest)
		return false
	}

	c.state.Loading = false
	if err != nil {
		c.state.Err = err
	} else {
		c.state.Snapshot = details
		c.state.Generation = gen
		c.state.Err = nil
		if c.clearDangling && c.state.Selected != "" && !tree.Contains(details, c.state.Selected) {
			c.logger.Debug("clearing dangling selection", "id", c.state.Selected)
			c.state.Selected = ""
		}
	}
	s := c.state
	c.mu.Unlock()

	if err != nil {
		c.reporter.ReportError(op, err)
	} else {
		c.logger.Debug("snapshot applied", "generation", gen, "projects", len(details))
	}
	c.notify(s)
	return true
}

// ClickProject selects p. A double click also opens its details.
func (c *Coordinator) ClickProject(p *project.Project, double bool) {
	c.logger.Debug("project clicked", "root", p.RootFolder, "double", double)
	c.selectAndClose(p.RootFolder)
	if double {
		c.router.ViewProjectDetails(p.Attached)
	}
}

// ClickPlanFile selects f and opens it. Single and double clicks behave the
// same.
func (c *Coordinator) ClickPlanFile(f scm.FileState) {
	c.selectAndClose(f.File)
	c.router.ViewTestPlan(f.File)
}

// ClickProjectFile selects f. Nothing is opened for non-plan files.
func (c *Coordinator) ClickProjectFile(p *project.Project, f scm.FileState, double bool) {
	c.logger.Debug("project file clicked", "root", p.RootFolder, "file", f.File, "double", double)
	c.selectAndClose(f.File)
}

// Select moves the cursor to id. Selecting the current id changes nothing.
func (c *Coordinator) Select(id string) {
	c.update(func(s *State) { s.Selected = id })
}

func (c *Coordinator) selectAndClose(id string) {
	c.update(func(s *State) {
		s.Selected = id
		s.SettingsOpen = false
	})
}

// ToggleSettings opens or closes the settings panel.
func (c *Coordinator) ToggleSettings() {
	c.update(func(s *State) { s.SettingsOpen = !s.SettingsOpen })
}

// CloseSettings closes the settings panel.
func (c *Coordinator) CloseSettings() {
	c.update(func(s *State) { s.SettingsOpen = false })
}

// AddProject closes settings and opens the add-project dialog.
func (c *Coordinator) AddProject() {
	c.CloseSettings()
	c.dialog.AddProjectDialog()
}

// RemoveSelectedProject closes settings and detaches the selected project
// when the cursor is on an attached root. Anything else is a no-op.
func (c *Coordinator) RemoveSelectedProject(ctx context.Context) error {
	c.mu.Lock()
	c.state.SettingsOpen = false
	selected := c.state.Selected
	var root string
	for _, d := range c.state.Snapshot {
		if d.Attached.Root == selected {
			root = selected
			break
		}
	}
	s := c.state
	c.mu.Unlock()
	c.notify(s)

	if root == "" || c.remover == nil {
		c.logger.Debug("remove ignored: no attached project selected", "selected", selected)
		return nil
	}

	c.logger.Info("removing project", "root", root)
	if err := c.remover.Detach(ctx, root); err != nil {
		err = fmt.Errorf("remove %s: %w", root, err)
		c.reporter.ReportError("remove project", err)
		return err
	}
	return nil
}

// ToggleShowDeleted closes settings and flips whether deleted files show.
func (c *Coordinator) ToggleShowDeleted() {
	c.update(func(s *State) {
		s.SettingsOpen = false
		s.ShowDeleted = !s.ShowDeleted
	})
}

// ToggleShowNonPlanFiles closes settings and flips whether non-plan files
// show.
func (c *Coordinator) ToggleShowNonPlanFiles() {
	c.update(func(s *State) {
		s.SettingsOpen = false
		s.ShowNonPlanFiles = !s.ShowNonPlanFiles
	})
}

// State returns a copy of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to run after every state change and returns a
// func that unregisters it. fn runs on the goroutine that made the change.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// update applies fn under the lock and notifies subscribers if anything
// observable changed.
func (c *Coordinator) update(fn func(s *State)) {
	c.mu.Lock()
	before := c.state
	fn(&c.state)
	after := c.state
	c.mu.Unlock()

	if sameFlags(before, after) {
		return
	}
	c.notify(after)
}

func sameFlags(a, b State) bool {
	return a.Selected == b.Selected &&
		a.ShowDeleted == b.ShowDeleted &&
		a.ShowNonPlanFiles == b.ShowNonPlanFiles &&
		a.SettingsOpen == b.SettingsOpen
}

func (c *Coordinator) notify(s State) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	fns := make([]func(State), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (c *Coordinator) list(ctx context.Context) ([]project.AttachedProject, error) {
	if c.lister == nil {
		return nil, nil
	}
	return c.lister.List(ctx)
}

func (c *Coordinator) build(ctx context.Context, attached []project.AttachedProject) ([]tree.ProjectDetails, error) {
	if c.builder == nil {
		return []tree.ProjectDetails{}, nil
	}
	return c.builder.Build(ctx, attached)
}

type nopRouter struct{}

func (nopRouter) ViewProjectDetails(project.AttachedProject) {}
func (nopRouter) ViewTestPlan(string)                        {}

type nopDialog struct{}

func (nopDialog) AddProjectDialog() {}
