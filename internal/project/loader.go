// pattern: Imperative Shell

package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"plantree/internal/config"
	"plantree/internal/logging"
	"plantree/internal/scm"
)

// Loader refreshes Projects from disk.
type Loader struct {
	files  scm.Lister
	cfg    *config.Config
	logger *logging.ScopedLogger
}

// NewLoader creates a Loader that classifies files with cfg and reads their
// status from files.
func NewLoader(cfg *config.Config, files scm.Lister, logger *logging.ScopedLogger) *Loader {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Loader{
		files:  files,
		cfg:    cfg,
		logger: logger,
	}
}

// Refresh repopulates p's children, plan files and project files. On error p
// is left as it was.
func (l *Loader) Refresh(ctx context.Context, p *Project) error {
	info, err := os.Stat(p.RootFolder)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p.RootFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("refresh %s: not a directory", p.RootFolder)
	}

	childRoots, err := l.findChildRoots(ctx, p.RootFolder)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p.RootFolder, err)
	}

	files, err := l.files.Files(ctx, p.RootFolder)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p.RootFolder, err)
	}

	children := make([]*Project, 0, len(childRoots))
	for _, root := range childRoots {
		child := &Project{
			Name:       filepath.Base(root),
			RootFolder: root,
			Attached:   p.Attached,
		}
		if err := l.Refresh(ctx, child); err != nil {
			return err
		}
		children = append(children, child)
	}

	var planFiles, projectFiles []scm.FileState
	for _, f := range files {
		if ownedByChild(f.File, childRoots) || l.inIgnoredDir(p.RootFolder, f.File) {
			continue
		}
		if l.cfg.IsPlanFile(f.File) {
			planFiles = append(planFiles, f)
		} else {
			projectFiles = append(projectFiles, f)
		}
	}

	p.ChildProjects = children
	p.PlanFiles = planFiles
	p.ProjectFiles = projectFiles

	l.logger.Debug("refreshed project",
		"root", p.RootFolder,
		"children", len(children),
		"plans", len(planFiles),
		"files", len(projectFiles))
	return nil
}

// findChildRoots walks root looking for directories that carry a project
// marker. It does not descend into a child; the child's own refresh does.
func (l *Loader) findChildRoots(ctx context.Context, root string) ([]string, error) {
	var roots []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped, not fatal.
			if path != root && d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if l.cfg.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if l.hasMarker(path) {
			roots = append(roots, path)
			return filepath.SkipDir
		}
		return nil
	})
	return roots, err
}

func (l *Loader) hasMarker(dir string) bool {
	for _, marker := range l.cfg.ProjectMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// inIgnoredDir reports whether file sits below an ignored directory of root.
func (l *Loader) inIgnoredDir(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	dirs := strings.Split(filepath.Dir(rel), string(filepath.Separator))
	for _, dir := range dirs {
		if dir != "." && l.cfg.IsIgnoredDir(dir) {
			return true
		}
	}
	return false
}

func ownedByChild(file string, childRoots []string) bool {
	for _, root := range childRoots {
		if file == root || strings.HasPrefix(file, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
