// pattern: Imperative Shell

package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch turns edits to the store file made outside this Provider into update
// events. It watches the parent directory, since editors and the store itself
// replace the file by rename, and polls the modification time as a safeguard
// for filesystems that drop events. It returns when ctx is cancelled.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	path := filepath.Clean(p.store.Path())
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	lastMod := modTime(path)
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				settle = time.After(p.debounce)
			}

		case <-ticker.C:
			if mod := modTime(path); !mod.Equal(lastMod) {
				settle = time.After(p.debounce)
			}

		case <-settle:
			settle = nil
			lastMod = modTime(path)
			if err := p.Reload(); err != nil {
				p.logger.Warn("reload attached projects failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("store watcher error", "error", err)
		}
	}
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
