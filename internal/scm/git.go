// pattern: Imperative Shell

package scm

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"plantree/internal/logging"
)

// Lister reports the files under a folder with their source-control status.
type Lister interface {
	Files(ctx context.Context, root string) ([]FileState, error)
}

// RunFunc executes git with args in dir and returns stdout.
type RunFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Git lists files through the git CLI. Folders outside a work tree fall back
// to a plain directory walk with every file reported untracked.
type Git struct {
	run     RunFunc
	skipDir func(name string) bool
	logger  *logging.ScopedLogger
}

// NewGit creates a Git lister. skipDir may be nil.
func NewGit(logger *logging.ScopedLogger, skipDir func(name string) bool) *Git {
	if skipDir == nil {
		skipDir = func(string) bool { return false }
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Git{
		run:     runGit,
		skipDir: skipDir,
		logger:  logger,
	}
}

// WithRunner swaps the git executor. Used by tests.
func (g *Git) WithRunner(run RunFunc) *Git {
	g.run = run
	return g
}

func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	return cmd.Output()
}

// Files implements Lister. Results are sorted by path.
func (g *Git) Files(ctx context.Context, root string) ([]FileState, error) {
	prefix, err := g.run(ctx, root, "rev-parse", "--show-prefix")
	if err != nil {
		g.logger.Debug("not a git work tree, walking directory", "root", root)
		return g.walk(ctx, root)
	}

	tracked, err := g.run(ctx, root, "ls-files", "-z", "--full-name")
	if err != nil {
		return nil, fmt.Errorf("git ls-files in %s: %w", root, err)
	}
	status, err := g.run(ctx, root, "status", "--porcelain=v1", "-z", "--untracked-files=all", "--", ".")
	if err != nil {
		return nil, fmt.Errorf("git status in %s: %w", root, err)
	}

	files := merge(root, strings.TrimSpace(string(prefix)), tracked, ParsePorcelain(status))
	g.logger.Debug("listed files", "root", root, "count", len(files))
	return files, nil
}

// merge overlays porcelain statuses on the tracked file list. Repo-relative
// paths outside prefix are dropped; the rest are rooted at root.
func merge(root, prefix string, tracked []byte, entries []Entry) []FileState {
	statuses := make(map[string]Status)
	for _, rel := range bytes.Split(tracked, []byte{0}) {
		if len(rel) > 0 {
			statuses[string(rel)] = StatusTracked
		}
	}
	for _, e := range entries {
		statuses[e.Path] = e.Status
	}

	files := make([]FileState, 0, len(statuses))
	for rel, st := range statuses {
		if !strings.HasPrefix(rel, prefix) {
			continue
		}
		rel = strings.TrimPrefix(rel, prefix)
		if rel == "" {
			continue
		}
		files = append(files, FileState{
			File:   filepath.Join(root, filepath.FromSlash(rel)),
			Status: st,
		})
	}
	slices.SortFunc(files, compareFiles)
	return files
}

func compareFiles(a, b FileState) int {
	return strings.Compare(a.File, b.File)
}

func (g *Git) walk(ctx context.Context, root string) ([]FileState, error) {
	var files []FileState
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && g.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, FileState{File: path, Status: StatusUntracked})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.SortFunc(files, compareFiles)
	return files, nil
}
