// pattern: Functional Core

package tree

import (
	"cmp"
	"slices"

	"plantree/internal/project"
	"plantree/internal/scm"
)

// Sorted returns a deep copy of details with every level sorted. Top-level
// entries order by project name, then root folder. The input is untouched.
func Sorted(details []ProjectDetails) []ProjectDetails {
	out := make([]ProjectDetails, len(details))
	for i, d := range details {
		out[i] = ProjectDetails{Project: d.Project.Clone(), Attached: d.Attached}
		SortProject(out[i].Project)
	}
	slices.SortStableFunc(out, func(a, b ProjectDetails) int {
		return cmp.Or(
			cmp.Compare(projectName(a.Project), projectName(b.Project)),
			cmp.Compare(projectRoot(a.Project), projectRoot(b.Project)),
		)
	})
	return out
}

// SortProject sorts p's children, plan files and project files in place,
// recursively.
func SortProject(p *project.Project) {
	if p == nil {
		return
	}
	slices.SortStableFunc(p.ChildProjects, func(a, b *project.Project) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.RootFolder, b.RootFolder),
		)
	})
	slices.SortStableFunc(p.PlanFiles, compareFiles)
	slices.SortStableFunc(p.ProjectFiles, compareFiles)
	for _, child := range p.ChildProjects {
		SortProject(child)
	}
}

func compareFiles(a, b scm.FileState) int {
	return cmp.Compare(a.File, b.File)
}

func projectName(p *project.Project) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func projectRoot(p *project.Project) string {
	if p == nil {
		return ""
	}
	return p.RootFolder
}
