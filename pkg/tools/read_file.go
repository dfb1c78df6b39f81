package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxReadBytes = 1 << 20 // 1MB safety cap on tool output

// ReadFileTool reads file contents from the workspace.
type ReadFileTool struct {
	workspaceRoot string
}

// NewReadFileTool creates a read_file tool scoped to the workspace.
func NewReadFileTool(workspaceRoot string) *ReadFileTool {
	return &ReadFileTool{workspaceRoot: workspaceRoot}
}

// Name returns the tool name.
func (t *ReadFileTool) Name() string {
	return ToolReadFile
}

// Definition returns the tool definition for the provider.
func (t *ReadFileTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolReadFile,
		Description: "Read the contents of a file from the workspace.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {
					Type:        "string",
					Description: "Relative path to the file within the workspace",
				},
			},
			Required: []string{"path"},
		},
	}
}

// resolveWorkspacePath cleans a relative path and confines it to root.
func resolveWorkspacePath(root, path string) (string, error) {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || strings.HasPrefix(filepath.ToSlash(clean), "../") || clean == ".." {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return filepath.Join(root, clean), nil
}

// Exec reads the requested file.
func (t *ReadFileTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("path is required and must be a string")
	}

	target, err := resolveWorkspacePath(t.workspaceRoot, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExecResult{Content: fmt.Sprintf("File not found: %s", path)}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > maxReadBytes {
		data = data[:maxReadBytes]
	}
	return &ExecResult{Content: string(data)}, nil
}
