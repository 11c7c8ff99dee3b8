// pattern: Functional Core

package project

import (
	"path/filepath"

	"plantree/internal/scm"
)

// AttachedProject is a root folder the user explicitly added. Root is the
// identity; Name optionally overrides the display name.
type AttachedProject struct {
	Root string `yaml:"root" json:"root"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DisplayName returns Name, or the root's basename when unset.
func (ap AttachedProject) DisplayName() string {
	if ap.Name != "" {
		return ap.Name
	}
	return filepath.Base(ap.Root)
}

// AttachedProjectsUpdated carries the full attached list after any change.
type AttachedProjectsUpdated struct {
	Projects []AttachedProject
}

// Project is the refreshed view of one folder: nested projects discovered
// under it plus its plan and project files. Children share the Attached
// descriptor of the root they were found under.
type Project struct {
	Name          string          `json:"name"`
	RootFolder    string          `json:"root_folder"`
	Attached      AttachedProject `json:"attached"`
	ChildProjects []*Project      `json:"child_projects"`
	PlanFiles     []scm.FileState `json:"plan_files"`
	ProjectFiles  []scm.FileState `json:"project_files"`
}

// New returns an unrefreshed Project for ap.
func New(ap AttachedProject) *Project {
	return &Project{
		Name:       ap.DisplayName(),
		RootFolder: ap.Root,
		Attached:   ap,
	}
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.PlanFiles = append([]scm.FileState(nil), p.PlanFiles...)
	out.ProjectFiles = append([]scm.FileState(nil), p.ProjectFiles...)
	out.ChildProjects = make([]*Project, len(p.ChildProjects))
	for i, child := range p.ChildProjects {
		out.ChildProjects[i] = child.Clone()
	}
	return &out
}

// Contains reports whether id names this project, a nested project, or one
// of their files.
func (p *Project) Contains(id string) bool {
	if p.RootFolder == id {
		return true
	}
	for _, f := range p.PlanFiles {
		if f.File == id {
			return true
		}
	}
	for _, f := range p.ProjectFiles {
		if f.File == id {
			return true
		}
	}
	for _, child := range p.ChildProjects {
		if child.Contains(id) {
			return true
		}
	}
	return false
}
