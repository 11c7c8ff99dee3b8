package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/sidebar"
	"plantree/internal/tree"
	"plantree/internal/web"
)

// staticBuilder returns projects with one plan file each, in input order.
type staticBuilder struct{}

func (staticBuilder) Build(_ context.Context, attached []project.AttachedProject) ([]tree.ProjectDetails, error) {
	out := make([]tree.ProjectDetails, len(attached))
	for i, ap := range attached {
		p := project.New(ap)
		p.PlanFiles = []scm.FileState{
			{File: ap.Root + "/z.plan", Status: scm.StatusTracked},
			{File: ap.Root + "/a.plan", Status: scm.StatusModified},
		}
		out[i] = tree.ProjectDetails{Project: p, Attached: ap}
	}
	return out, nil
}

type fakeLister []project.AttachedProject

func (f fakeLister) List(context.Context) ([]project.AttachedProject, error) { return f, nil }

type fakeProjects struct {
	attached []string
	detached []string
	err      error
}

func (f *fakeProjects) Attach(_ context.Context, path, name string) (project.AttachedProject, error) {
	if f.err != nil {
		return project.AttachedProject{}, f.err
	}
	f.attached = append(f.attached, path)
	return project.AttachedProject{Root: path, Name: name}, nil
}

func (f *fakeProjects) Detach(_ context.Context, root string) error {
	if f.err != nil {
		return f.err
	}
	f.detached = append(f.detached, root)
	return nil
}

func newAPIServer(t *testing.T) (*web.Server, *sidebar.Coordinator, *fakeProjects) {
	t.Helper()
	coord := sidebar.New(sidebar.Config{
		Lister:  fakeLister{{Root: "/b"}, {Root: "/a"}},
		Builder: staticBuilder{},
	})
	if err := coord.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	lm := logging.NewTestLogManager(50)
	t.Cleanup(func() { _ = lm.Close() })

	projects := &fakeProjects{}
	return web.New(web.Config{Bind: "127.0.0.1"}, coord, projects, lm), coord, projects
}

func doRequest(t *testing.T, s *web.Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetTree_ReturnsSortedTree(t *testing.T) {
	s, coord, _ := newAPIServer(t)
	coord.Select("/a/a.plan")

	rec := doRequest(t, s, http.MethodGet, "/api/tree", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp web.TreeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(resp.Projects))
	}
	if resp.Projects[0].Project.RootFolder != "/a" {
		t.Errorf("first project = %s, want /a", resp.Projects[0].Project.RootFolder)
	}
	if resp.Projects[0].Project.PlanFiles[0].File != "/a/a.plan" {
		t.Errorf("plan files not sorted: %+v", resp.Projects[0].Project.PlanFiles)
	}
	if resp.Selected != "/a/a.plan" {
		t.Errorf("Selected = %q", resp.Selected)
	}

	// The coordinator's own snapshot keeps build order.
	if coord.State().Snapshot[0].Attached.Root != "/b" {
		t.Error("serving the tree must not reorder the snapshot")
	}
}

func TestSelection_RoundTrip(t *testing.T) {
	s, coord, _ := newAPIServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/selection", map[string]string{"id": "/b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if coord.State().Selected != "/b" {
		t.Errorf("coordinator selection = %q", coord.State().Selected)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/selection", nil)
	var resp web.SelectionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Selected != "/b" {
		t.Errorf("GET selection = %q", resp.Selected)
	}
}

func TestSelection_InvalidBody(t *testing.T) {
	s, _, _ := newAPIServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/selection", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAttachProject(t *testing.T) {
	s, _, projects := newAPIServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/projects", map[string]string{"path": "/c", "name": "Cee"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(projects.attached) != 1 || projects.attached[0] != "/c" {
		t.Errorf("attached = %v", projects.attached)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/projects", map[string]string{"name": "nothing"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d, want 400", rec.Code)
	}
}

func TestAttachProject_Conflict(t *testing.T) {
	s, _, projects := newAPIServer(t)
	projects.err = project.ErrAlreadyAttached

	rec := doRequest(t, s, http.MethodPost, "/api/projects", map[string]string{"path": "/a"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestDetachProject(t *testing.T) {
	s, _, projects := newAPIServer(t)

	rec := doRequest(t, s, http.MethodDelete, "/api/projects?root="+url.QueryEscape("/a"), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(projects.detached) != 1 || projects.detached[0] != "/a" {
		t.Errorf("detached = %v", projects.detached)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/projects", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing root status = %d, want 400", rec.Code)
	}

	projects.err = project.ErrNotAttached
	rec = doRequest(t, s, http.MethodDelete, "/api/projects?root=/zzz", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown root status = %d, want 404", rec.Code)
	}
}
