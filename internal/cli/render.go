// pattern: Functional Core
package cli

import (
	"fmt"
	"io"
	"strings"

	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
)

// TreeOptions controls the text rendering of a snapshot.
type TreeOptions struct {
	ShowDeleted      bool
	ShowNonPlanFiles bool
	Selected         string
}

// RenderTree writes details fully expanded, one node per line. The
// selected node is prefixed with "> ".
func RenderTree(w io.Writer, details []tree.ProjectDetails, opts TreeOptions) {
	sorted := tree.Sorted(details)
	expanded := make(map[string]bool)
	markExpanded(sorted, expanded)

	rows := tree.Flatten(sorted, tree.Options{
		Expanded:         expanded,
		ShowDeleted:      opts.ShowDeleted,
		ShowNonPlanFiles: opts.ShowNonPlanFiles,
	})
	if len(rows) == 0 {
		fmt.Fprintln(w, "No attached projects. Use \"plantree attach <path>\".")
		return
	}

	for _, row := range rows {
		cursor := "  "
		if opts.Selected != "" && row.ID == opts.Selected {
			cursor = "> "
		}
		indent := strings.Repeat("  ", row.Depth)
		switch row.Kind {
		case tree.RowProject:
			fmt.Fprintf(w, "%s%s%s/  (%s)\n", cursor, indent, row.Label, row.ID)
		case tree.RowPlanFile:
			fmt.Fprintf(w, "%s%s* %s%s\n", cursor, indent, row.Label, statusSuffix(row.Status))
		default:
			fmt.Fprintf(w, "%s%s  %s%s\n", cursor, indent, row.Label, statusSuffix(row.Status))
		}
	}
}

func markExpanded(details []tree.ProjectDetails, expanded map[string]bool) {
	for _, d := range details {
		expandAll(d.Project, expanded)
	}
}

func expandAll(p *project.Project, expanded map[string]bool) {
	if p == nil {
		return
	}
	expanded[p.RootFolder] = true
	for _, child := range p.ChildProjects {
		expandAll(child, expanded)
	}
}

func statusSuffix(status scm.Status) string {
	switch status {
	case "", scm.StatusTracked:
		return ""
	default:
		return " [" + string(status) + "]"
	}
}
