package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"appforge/pkg/logx"
)

// WriteFileTool persists files into the workspace, constrained to the
// generation plan's path set. This constraint is what separates the
// executor from an unconstrained agent: a path outside the plan is
// rejected with a message, and nothing touches disk.
type WriteFileTool struct {
	workspaceRoot string
	allowedPaths  map[string]struct{}
	allowedDirs   []string
	logger        *logx.Logger
}

// NewWriteFileTool creates a write_file tool restricted to plannedPaths
// and their parent directories.
func NewWriteFileTool(workspaceRoot string, plannedPaths []string) *WriteFileTool {
	allowed := make(map[string]struct{}, len(plannedPaths))
	dirSeen := make(map[string]struct{})
	var dirs []string
	for _, p := range plannedPaths {
		clean := filepath.ToSlash(filepath.Clean(p))
		allowed[clean] = struct{}{}
		if dir := filepath.ToSlash(filepath.Dir(clean)); dir != "." && dir != "/" {
			if _, ok := dirSeen[dir]; !ok {
				dirSeen[dir] = struct{}{}
				dirs = append(dirs, dir)
			}
		}
	}
	return &WriteFileTool{
		workspaceRoot: workspaceRoot,
		allowedPaths:  allowed,
		allowedDirs:   dirs,
		logger:        logx.NewLogger("write-file"),
	}
}

// Name returns the tool name.
func (t *WriteFileTool) Name() string {
	return ToolWriteFile
}

// Definition returns the tool definition for the provider.
func (t *WriteFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolWriteFile,
		Description: "Write a file into the project workspace. Only paths listed in the generation plan (or inside their directories) are accepted.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {
					Type:        "string",
					Description: "Relative path of the file within the workspace",
				},
				"content": {
					Type:        "string",
					Description: "Full content of the file",
				},
			},
			Required: []string{"path", "content"},
		},
	}
}

// Allowed reports whether a path may be written under the plan.
func (t *WriteFileTool) Allowed(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	if strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") || clean == ".." {
		return false
	}
	if _, ok := t.allowedPaths[clean]; ok {
		return true
	}
	for _, dir := range t.allowedDirs {
		if strings.HasPrefix(clean, dir+"/") {
			return true
		}
	}
	return false
}

// Exec validates the path against the plan and writes the file.
func (t *WriteFileTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("path is required and must be a string")
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content is required and must be a string")
	}

	if !t.Allowed(path) {
		t.logger.Warn("rejected out-of-plan write: %s", path)
		return &ExecResult{
			Rejected: true,
			Content: fmt.Sprintf(
				"REJECTED: %q is not part of the generation plan. Write only the planned files; call list_files to review what exists.",
				path),
		}, nil
	}

	clean := filepath.Clean(path)
	target := filepath.Join(t.workspaceRoot, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", clean, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", clean, err)
	}

	rel := filepath.ToSlash(clean)
	t.logger.Debug("wrote %s (%d bytes)", rel, len(content))
	return &ExecResult{
		Content:   fmt.Sprintf("Wrote %s (%d bytes)", rel, len(content)),
		WrotePath: rel,
	}, nil
}
