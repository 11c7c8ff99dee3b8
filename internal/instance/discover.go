// pattern: Imperative Shell
package instance

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const healthTimeout = 2 * time.Second

// ErrNotRunning is returned by Discover when no instance holds the lock.
var ErrNotRunning = fmt.Errorf("no running plantree instance found")

// Discover checks whether a running plantree instance exists and returns
// its base URL (e.g. "http://127.0.0.1:12345").
func Discover(dataDir string) (string, error) {
	// If we can take the lock, nobody else holds it.
	fl := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return "", fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return "", ErrNotRunning
	}

	data, err := os.ReadFile(filepath.Join(dataDir, portFileName))
	if err != nil {
		return "", fmt.Errorf("plantree instance detected but port file missing (web API disabled?): %w", err)
	}

	addr := strings.TrimSpace(string(data))
	if addr == "" {
		return "", fmt.Errorf("plantree port file is empty (try 'plantree cleanup')")
	}

	baseURL := "http://" + addr

	client := &http.Client{Timeout: healthTimeout}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return "", fmt.Errorf("plantree instance not responding (try 'plantree cleanup'): %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plantree health check failed (status %d)", resp.StatusCode)
	}

	return baseURL, nil
}
