package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the temporary working area of one batch. Each identifier
// acquires its own fetch cache directory inside it and releases it when done;
// Close removes whatever is left.
type Workspace struct {
	dir string
}

// NewWorkspace creates the batch temp directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "kb-plugins-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// Acquire creates a fresh fetch cache directory. The returned release func
// removes it and is safe to call more than once.
func (w *Workspace) Acquire() (string, func(), error) {
	dir := filepath.Join(w.dir, "fetch-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", nil, fmt.Errorf("create fetch cache: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
