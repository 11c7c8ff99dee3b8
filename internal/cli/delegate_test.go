// pattern: Imperative Shell
package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"plantree/internal/instance"
)

// fakeInstance holds the instance lock in a temp dir and points the port
// file at handler.
func fakeInstance(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	fl, err := instance.Lock(dir)
	if err != nil {
		t.Fatalf("failed to lock: %v", err)
	}
	t.Cleanup(func() { instance.Cleanup(dir, fl) })

	portFile := filepath.Join(dir, "plantree.port")
	if err := os.WriteFile(portFile, []byte(server.Listener.Addr().String()), 0600); err != nil {
		t.Fatalf("failed to write port file: %v", err)
	}
	return dir
}

func TestDelegate_Run_NoInstance_ExitsCode2(t *testing.T) {
	exitCode := -1
	stderr := &bytes.Buffer{}

	delegate := Delegate{
		ConfigDir: t.TempDir(),
		ExitFunc:  func(code int) { exitCode = code },
		Stderr:    stderr,
	}

	delegate.Run(func(client *instance.Client) error {
		return fmt.Errorf("should not be called")
	})

	if exitCode != 2 {
		t.Errorf("exit code = %d, want 2", exitCode)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("no running plantree instance found")) {
		t.Errorf("stderr should mention the missing instance, got: %s", stderr.String())
	}
}

func TestDelegate_Run_Success(t *testing.T) {
	dir := fakeInstance(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			w.WriteHeader(http.StatusOK)
		case "/api/selection":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"selected":"/a"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	exitCode := -1
	stderr := &bytes.Buffer{}
	clientCalled := false

	delegate := Delegate{
		ConfigDir: dir,
		ExitFunc:  func(code int) { exitCode = code },
		Stderr:    stderr,
	}

	delegate.Run(func(client *instance.Client) error {
		clientCalled = true
		_, err := client.Selection()
		return err
	})

	if !clientCalled {
		t.Errorf("client function was not called")
	}
	if exitCode != -1 {
		t.Errorf("exit code = %d, want no exit call", exitCode)
	}
	if stderr.Len() > 0 {
		t.Errorf("stderr should be empty on success, got: %s", stderr.String())
	}
}

func TestDelegate_Run_ClientError_ExitsCode1(t *testing.T) {
	dir := fakeInstance(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"something went wrong"}`))
		}
	})

	exitCode := -1
	stderr := &bytes.Buffer{}

	delegate := Delegate{
		ConfigDir: dir,
		ExitFunc:  func(code int) { exitCode = code },
		Stderr:    stderr,
	}

	delegate.Run(func(client *instance.Client) error {
		return client.Select("/nope")
	})

	if exitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitCode)
	}
	if got := stderr.String(); got != "error: something went wrong\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestPrintJSON_NonTerminalWritesRaw(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := PrintJSON(buf, []byte(`{"key":"value"}`)); err != nil {
		t.Fatalf("PrintJSON returned error: %v", err)
	}
	if buf.String() != `{"key":"value"}` {
		t.Errorf("PrintJSON output = %q", buf.String())
	}
}
