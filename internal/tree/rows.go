// pattern: Functional Core

package tree

import (
	"path/filepath"

	"plantree/internal/project"
	"plantree/internal/scm"
)

// RowKind identifies what a display row stands for.
type RowKind int

const (
	RowProject RowKind = iota
	RowPlanFile
	RowProjectFile
)

func (k RowKind) String() string {
	switch k {
	case RowProject:
		return "project"
	case RowPlanFile:
		return "plan"
	case RowProjectFile:
		return "file"
	default:
		return "unknown"
	}
}

// Row is one visible line of the tree.
type Row struct {
	Kind  RowKind
	Depth int
	// ID is the project root or the file path: the selection identity.
	ID       string
	Label    string
	Status   scm.Status
	Expanded bool
	// HasChildren is set on project rows that have anything to expand.
	HasChildren bool
	Project     *project.Project
	File        scm.FileState
}

// Options controls which nodes Flatten emits.
type Options struct {
	// Expanded holds the root folders of projects whose contents are shown.
	Expanded         map[string]bool
	ShowDeleted      bool
	ShowNonPlanFiles bool
}

// Flatten walks details depth-first and returns the visible rows. Each
// project lists its nested projects, then its plan files, then its other
// files. Callers pass an already sorted snapshot.
func Flatten(details []ProjectDetails, opts Options) []Row {
	var rows []Row
	for _, d := range details {
		rows = appendProject(rows, d.Project, 0, opts)
	}
	return rows
}

func appendProject(rows []Row, p *project.Project, depth int, opts Options) []Row {
	if p == nil {
		return rows
	}

	plans := visibleFiles(p.PlanFiles, opts.ShowDeleted)
	var others []scm.FileState
	if opts.ShowNonPlanFiles {
		others = visibleFiles(p.ProjectFiles, opts.ShowDeleted)
	}

	expanded := opts.Expanded[p.RootFolder]
	rows = append(rows, Row{
		Kind:        RowProject,
		Depth:       depth,
		ID:          p.RootFolder,
		Label:       p.Name,
		Expanded:    expanded,
		HasChildren: len(p.ChildProjects)+len(plans)+len(others) > 0,
		Project:     p,
	})
	if !expanded {
		return rows
	}

	for _, child := range p.ChildProjects {
		rows = appendProject(rows, child, depth+1, opts)
	}
	for _, f := range plans {
		rows = append(rows, fileRow(RowPlanFile, p, f, depth+1))
	}
	for _, f := range others {
		rows = append(rows, fileRow(RowProjectFile, p, f, depth+1))
	}
	return rows
}

func fileRow(kind RowKind, p *project.Project, f scm.FileState, depth int) Row {
	return Row{
		Kind:    kind,
		Depth:   depth,
		ID:      f.File,
		Label:   filepath.Base(f.File),
		Status:  f.Status,
		Project: p,
		File:    f,
	}
}

func visibleFiles(files []scm.FileState, showDeleted bool) []scm.FileState {
	if showDeleted {
		return files
	}
	out := make([]scm.FileState, 0, len(files))
	for _, f := range files {
		if !f.IsDeleted() {
			out = append(out, f)
		}
	}
	return out
}

// FindProject returns the project in details whose root is root, searching
// nested projects too.
func FindProject(details []ProjectDetails, root string) *project.Project {
	for _, d := range details {
		if p := findIn(d.Project, root); p != nil {
			return p
		}
	}
	return nil
}

func findIn(p *project.Project, root string) *project.Project {
	if p == nil {
		return nil
	}
	if p.RootFolder == root {
		return p
	}
	for _, child := range p.ChildProjects {
		if found := findIn(child, root); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether any node in details has the given id.
func Contains(details []ProjectDetails, id string) bool {
	for _, d := range details {
		if d.Project != nil && d.Project.Contains(id) {
			return true
		}
	}
	return false
}
