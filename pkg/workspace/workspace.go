// Package workspace manages the per-job scratch directories that
// generated applications are assembled in before being pushed to a
// remote. Workspaces are always temporary; the git remote is the
// durable copy.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"appforge/pkg/logx"
	"appforge/pkg/utils"
)

const dirPrefix = "job-"

// DefaultStaleAge is how old an abandoned workspace must be before the
// sweeper removes it. Crashed processes leave directories behind; a
// generous age avoids racing a live job.
const DefaultStaleAge = 24 * time.Hour

// Manager creates and sweeps workspaces under a single root.
type Manager struct {
	root   string
	logger *logx.Logger
}

// NewManager creates a manager rooted at root, creating it if needed.
// An empty root defaults to <os temp>/appforge.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "appforge")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return &Manager{root: root, logger: logx.NewLogger("workspace")}, nil
}

// Root returns the workspace root directory.
func (m *Manager) Root() string {
	return m.root
}

// Create makes a fresh workspace for the given job. A leftover
// directory for the same job id is emptied, not failed on.
func (m *Manager) Create(jobID string) (*Workspace, error) {
	dir := filepath.Join(m.root, dirPrefix+jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace for job %s: %w", jobID, err)
	}
	if err := utils.CleanDirectoryContents(dir); err != nil {
		return nil, fmt.Errorf("failed to clean workspace for job %s: %w", jobID, err)
	}
	m.logger.Debug("created workspace %s", dir)
	return &Workspace{dir: dir, logger: m.logger}, nil
}

// SweepStale removes leftover job directories older than maxAge.
// It returns the number of directories removed.
func (m *Manager) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.logger.Warn("failed to sweep %s: %v", path, err)
			continue
		}
		m.logger.Info("swept stale workspace %s", entry.Name())
		removed++
	}
	return removed, nil
}

// Workspace is one job's scratch directory.
type Workspace struct {
	dir     string
	logger  *logx.Logger
	cleanup sync.Once
}

// Dir returns the workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Cleanup removes the workspace. It is safe to call from multiple
// paths (deferred and explicit); only the first call removes anything.
func (w *Workspace) Cleanup() {
	w.cleanup.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.logger.Warn("failed to remove workspace %s: %v", w.dir, err)
			return
		}
		w.logger.Debug("removed workspace %s", w.dir)
	})
}
