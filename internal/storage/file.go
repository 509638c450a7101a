package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default permissions for report files and their directories.
const (
	FilePermissions os.FileMode = 0644
	DirPermissions  os.FileMode = 0755
)

// WriteFileAtomic writes data to path through a temporary file and a rename,
// so readers never observe a partially written report.
func WriteFileAtomic(path string, data []byte) error {
	// Create target directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
