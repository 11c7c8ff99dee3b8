// pattern: Functional Core

package scm

import "bytes"

// Entry is one record of `git status --porcelain=v1 -z` output.
type Entry struct {
	Path     string // Path relative to the repository root
	OrigPath string // Source path for renames and copies
	Status   Status
}

// ParsePorcelain parses NUL-separated porcelain v1 status output.
// Format per record:
//
//	XY <path>\0
//	XY <new path>\0<old path>\0   (renames and copies)
//
// Ignored entries ("!!") are dropped. Malformed records are skipped.
func ParsePorcelain(out []byte) []Entry {
	var entries []Entry

	fields := bytes.Split(out, []byte{0})
	for i := 0; i < len(fields); i++ {
		rec := fields[i]
		if len(rec) < 4 || rec[2] != ' ' {
			continue
		}
		x, y := rec[0], rec[1]
		entry := Entry{
			Path:   string(rec[3:]),
			Status: statusFromXY(x, y),
		}
		if x == 'R' || x == 'C' {
			if i+1 < len(fields) {
				entry.OrigPath = string(fields[i+1])
				i++
			}
		}
		if x == '!' && y == '!' {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// statusFromXY collapses the two-column index/worktree code into one Status.
// Conflicts win, then renames, deletions, additions and modifications.
func statusFromXY(x, y byte) Status {
	switch {
	case x == '?' && y == '?':
		return StatusUntracked
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return StatusConflicted
	case x == 'R' || y == 'R':
		return StatusRenamed
	case x == 'D' || y == 'D':
		return StatusDeleted
	case x == 'A' || x == 'C':
		return StatusAdded
	case x == 'M' || y == 'M' || x == 'T' || y == 'T':
		return StatusModified
	default:
		return StatusTracked
	}
}
