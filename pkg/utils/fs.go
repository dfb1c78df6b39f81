package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// CleanDirectoryContents removes everything inside dir without removing
// dir itself. Keeping the directory inode stable lets callers reuse a
// workspace root across jobs.
func CleanDirectoryContents(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(entryPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entryPath, err)
		}
	}
	return nil
}
