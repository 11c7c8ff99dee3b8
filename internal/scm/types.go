// pattern: Functional Core

package scm

// Status is a file's source-control state.
type Status string

const (
	StatusTracked    Status = "tracked"
	StatusModified   Status = "modified"
	StatusAdded      Status = "added"
	StatusDeleted    Status = "deleted"
	StatusRenamed    Status = "renamed"
	StatusUntracked  Status = "untracked"
	StatusConflicted Status = "conflicted"
)

// FileState pairs an absolute file path with its source-control status.
type FileState struct {
	File   string `json:"file"`
	Status Status `json:"status"`
}

// IsDeleted reports whether the file is gone from the working tree.
func (f FileState) IsDeleted() bool {
	return f.Status == StatusDeleted
}
