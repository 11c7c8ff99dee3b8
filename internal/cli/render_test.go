// pattern: Functional Core
package cli

import (
	"bytes"
	"strings"
	"testing"

	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
)

func TestRenderTree(t *testing.T) {
	p := &project.Project{
		Name:       "shop",
		RootFolder: "/shop",
		PlanFiles: []scm.FileState{
			{File: "/shop/z.plan", Status: scm.StatusModified},
			{File: "/shop/a.plan", Status: scm.StatusTracked},
			{File: "/shop/old.plan", Status: scm.StatusDeleted},
		},
	}
	details := []tree.ProjectDetails{{Project: p}}

	buf := &bytes.Buffer{}
	RenderTree(buf, details, TreeOptions{Selected: "/shop/z.plan"})

	want := strings.Join([]string{
		"  shop/  (/shop)",
		"    * a.plan",
		">   * z.plan [modified]",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("RenderTree() =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	RenderTree(buf, details, TreeOptions{ShowDeleted: true})
	if !strings.Contains(buf.String(), "old.plan [deleted]") {
		t.Errorf("deleted plan missing:\n%s", buf.String())
	}
}

func TestRenderTree_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTree(buf, nil, TreeOptions{})
	if !strings.Contains(buf.String(), "No attached projects") {
		t.Errorf("RenderTree(nil) = %q", buf.String())
	}
}
