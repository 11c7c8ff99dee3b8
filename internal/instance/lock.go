// pattern: Imperative Shell
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"
)

const (
	lockFileName = "plantree.lock"
	portFileName = "plantree.port"
)

// Lock acquires an exclusive file lock for single-instance enforcement.
// Returns the flock handle (caller must defer Cleanup) or an error if
// another instance already holds the lock.
func Lock(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	fl := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another plantree instance is already running")
	}
	return fl, nil
}

// WritePort records the web server's listener address for CLI discovery.
func WritePort(dataDir, addr string) error {
	return os.WriteFile(filepath.Join(dataDir, portFileName), []byte(addr), 0600)
}

// Cleanup removes the port file and releases the file lock.
func Cleanup(dataDir string, fl *flock.Flock) {
	_ = os.Remove(filepath.Join(dataDir, portFileName))
	if fl != nil {
		_ = fl.Unlock()
	}
}

// RemoveStale deletes the lock and port files left by a crashed instance.
// It refuses while a live instance holds the lock.
func RemoveStale(dataDir string) ([]string, error) {
	var existing []string
	for _, name := range []string{portFileName, lockFileName} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil, nil
	}

	lockPath := filepath.Join(dataDir, lockFileName)
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to check lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("a plantree instance is running; quit it first")
	}
	defer fl.Unlock()

	// TryLock creates a missing lock file. Only files that predate the call
	// are reported.
	var removed []string
	for _, path := range []string{filepath.Join(dataDir, portFileName), lockPath} {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		if err == nil && slices.Contains(existing, path) {
			removed = append(removed, path)
		}
	}
	return removed, nil
}
