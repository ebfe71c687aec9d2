// Package filex provides the temporary workspace used by extraction jobs.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is an exclusively-owned temporary directory scoped to a single
// job. It must be removed on every exit path; callers typically defer
// Remove right after NewWorkspace succeeds.
type Workspace struct {
	root string
}

func NewWorkspace(prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("mkdtemp: %w", err)
	}
	return &Workspace{root: dir}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Join resolves a path inside the workspace.
func (w *Workspace) Join(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// EnsureSubDir creates (if needed) and returns a subdirectory of the
// workspace.
func (w *Workspace) EnsureSubDir(name string) (string, error) {
	dir := filepath.Join(w.root, name)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.root)
}
