// pattern: Imperative Shell

package project

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"plantree/internal/logging"
)

// ListenerID identifies a registered update listener.
type ListenerID uint64

// Provider is the attached-project state source: it lists, attaches and
// detaches projects and tells listeners whenever the list changes, whether
// the change came through it or from another process editing the store.
type Provider struct {
	store        *Store
	logger       *logging.ScopedLogger
	pollInterval time.Duration
	debounce     time.Duration

	mu        sync.Mutex
	listeners map[ListenerID]func(AttachedProjectsUpdated)
	nextID    ListenerID
	last      []AttachedProject
}

// NewProvider creates a Provider over store.
func NewProvider(store *Store, logger *logging.ScopedLogger) *Provider {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Provider{
		store:        store,
		logger:       logger,
		pollInterval: 5 * time.Second,
		debounce:     200 * time.Millisecond,
		listeners:    make(map[ListenerID]func(AttachedProjectsUpdated)),
	}
}

// List returns the attached projects.
func (p *Provider) List(ctx context.Context) ([]AttachedProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	projects, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.last = slices.Clone(projects)
	p.mu.Unlock()
	return projects, nil
}

// Attach adds the folder at path. The folder must exist.
func (p *Provider) Attach(ctx context.Context, path, name string) (AttachedProject, error) {
	if err := ctx.Err(); err != nil {
		return AttachedProject{}, err
	}
	root, err := NormalizeRoot(path)
	if err != nil {
		return AttachedProject{}, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return AttachedProject{}, fmt.Errorf("attach %s: %w", root, err)
	}
	if !info.IsDir() {
		return AttachedProject{}, fmt.Errorf("attach %s: not a directory", root)
	}

	ap := AttachedProject{Root: root, Name: name}
	projects, err := p.store.Add(ap)
	if err != nil {
		return AttachedProject{}, err
	}
	p.logger.Info("project attached", "root", root)
	p.publish(projects)
	return ap, nil
}

// Detach removes the project rooted at root.
func (p *Provider) Detach(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	projects, err := p.store.Remove(root)
	if err != nil {
		return err
	}
	p.logger.Info("project detached", "root", root)
	p.publish(projects)
	return nil
}

// AddUpdatedListener registers fn for update events.
func (p *Provider) AddUpdatedListener(fn func(AttachedProjectsUpdated)) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.listeners[p.nextID] = fn
	return p.nextID
}

// RemoveUpdatedListener unregisters a listener. Unknown ids are ignored.
func (p *Provider) RemoveUpdatedListener(id ListenerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.listeners, id)
}

// Reload rereads the store and publishes if the list changed since the last
// publish or List call.
func (p *Provider) Reload() error {
	projects, err := p.store.Load()
	if err != nil {
		return err
	}
	p.mu.Lock()
	unchanged := p.last != nil && slices.Equal(p.last, projects)
	p.mu.Unlock()
	if unchanged {
		return nil
	}
	p.logger.Debug("store changed on disk", "count", len(projects))
	p.publish(projects)
	return nil
}

// publish records projects as current and calls every listener outside the
// lock, each with its own copy.
func (p *Provider) publish(projects []AttachedProject) {
	p.mu.Lock()
	p.last = slices.Clone(projects)
	fns := make([]func(AttachedProjectsUpdated), 0, len(p.listeners))
	ids := make([]ListenerID, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(AttachedProjectsUpdated{Projects: slices.Clone(projects)})
	}
}
