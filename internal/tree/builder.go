// pattern: Imperative Shell

package tree

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"plantree/internal/logging"
	"plantree/internal/project"
)

// ProjectDetails pairs a refreshed project with the descriptor it came from.
type ProjectDetails struct {
	Project  *project.Project        `json:"project"`
	Attached project.AttachedProject `json:"attached"`
}

// Refresher populates a project from disk.
type Refresher interface {
	Refresh(ctx context.Context, p *project.Project) error
}

// Builder turns attached descriptors into a fully refreshed snapshot.
type Builder struct {
	refresher Refresher
	logger    *logging.ScopedLogger
}

// NewBuilder creates a Builder.
func NewBuilder(refresher Refresher, logger *logging.ScopedLogger) *Builder {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Builder{refresher: refresher, logger: logger}
}

// Build refreshes one project per descriptor concurrently. The result is in
// input order. Any refresh failure fails the whole build and cancels the
// remaining refreshes.
func (b *Builder) Build(ctx context.Context, attached []project.AttachedProject) ([]ProjectDetails, error) {
	start := time.Now()
	b.logger.Debug("build started", "projects", len(attached))

	details := make([]ProjectDetails, len(attached))
	g, gctx := errgroup.WithContext(ctx)
	for i, ap := range attached {
		p := project.New(ap)
		details[i] = ProjectDetails{Project: p, Attached: ap}
		g.Go(func() error {
			if err := b.refresher.Refresh(gctx, p); err != nil {
				return fmt.Errorf("build %s: %w", ap.Root, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.logger.Warn("build failed", "error", err)
		return nil, err
	}

	b.logger.Debug("build finished", "projects", len(details), "elapsed", time.Since(start))
	return details, nil
}
