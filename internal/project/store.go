// pattern: Imperative Shell

package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const storeFileName = "projects.yaml"

var (
	// ErrAlreadyAttached is returned when attaching a root twice.
	ErrAlreadyAttached = errors.New("project already attached")
	// ErrNotAttached is returned when detaching an unknown root.
	ErrNotAttached = errors.New("project not attached")
)

type storeFile struct {
	Projects []AttachedProject `yaml:"projects"`
}

// Store persists the attached project list as YAML. Mutations are
// read-modify-write under a file lock so concurrent CLI invocations and a
// running TUI do not lose each other's changes.
type Store struct {
	path string
}

// NewStore returns a store backed by projects.yaml in dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, storeFileName)}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the attached projects in file order. A missing file is an
// empty list.
func (s *Store) Load() ([]AttachedProject, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []AttachedProject{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var f storeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if f.Projects == nil {
		f.Projects = []AttachedProject{}
	}
	return f.Projects, nil
}

// Add appends ap and returns the new list.
func (s *Store) Add(ap AttachedProject) ([]AttachedProject, error) {
	return s.update(func(projects []AttachedProject) ([]AttachedProject, error) {
		if indexOf(projects, ap.Root) >= 0 {
			return nil, fmt.Errorf("%s: %w", ap.Root, ErrAlreadyAttached)
		}
		return append(projects, ap), nil
	})
}

// Remove drops the project rooted at root and returns the new list.
func (s *Store) Remove(root string) ([]AttachedProject, error) {
	return s.update(func(projects []AttachedProject) ([]AttachedProject, error) {
		i := indexOf(projects, root)
		if i < 0 {
			return nil, fmt.Errorf("%s: %w", root, ErrNotAttached)
		}
		return slices.Delete(projects, i, i+1), nil
	})
}

func (s *Store) update(fn func([]AttachedProject) ([]AttachedProject, error)) ([]AttachedProject, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, err
	}

	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer func() { _ = fl.Unlock() }()

	projects, err := s.Load()
	if err != nil {
		return nil, err
	}
	projects, err = fn(projects)
	if err != nil {
		return nil, err
	}
	if err := s.write(projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Store) write(projects []AttachedProject) error {
	data, err := yaml.Marshal(storeFile{Projects: projects})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".projects-*.yaml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func indexOf(projects []AttachedProject, root string) int {
	return slices.IndexFunc(projects, func(ap AttachedProject) bool { return ap.Root == root })
}

// NormalizeRoot expands a leading "~", makes path absolute and cleans it.
func NormalizeRoot(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty project path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
