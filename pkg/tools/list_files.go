package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFilesTool lists workspace contents for the provider.
type ListFilesTool struct {
	workspaceRoot string
}

// NewListFilesTool creates a list_files tool scoped to the workspace.
func NewListFilesTool(workspaceRoot string) *ListFilesTool {
	return &ListFilesTool{workspaceRoot: workspaceRoot}
}

// Name returns the tool name.
func (t *ListFilesTool) Name() string {
	return ToolListFiles
}

// Definition returns the tool definition for the provider.
func (t *ListFilesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListFiles,
		Description: "List files in the workspace, optionally under a subdirectory.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {
					Type:        "string",
					Description: "Relative directory to list. Defaults to the workspace root.",
				},
			},
		},
	}
}

// Exec walks the requested directory and returns relative paths.
func (t *ListFilesTool) Exec(_ context.Context, args map[string]any) (*ExecResult, error) {
	dir := "."
	if raw, ok := args["path"].(string); ok && raw != "" {
		dir = raw
	}

	target, err := resolveWorkspacePath(t.workspaceRoot, dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	walkErr := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.git and friends) are noise to the provider.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(t.workspaceRoot, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return &ExecResult{Content: fmt.Sprintf("Directory not found: %s", dir)}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, walkErr)
	}

	sort.Strings(paths)
	if len(paths) == 0 {
		return &ExecResult{Content: "(empty)"}, nil
	}
	return &ExecResult{Content: strings.Join(paths, "\n")}, nil
}
