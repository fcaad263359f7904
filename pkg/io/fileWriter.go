package io

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDirForFile creates directory provided in filePath.
func MakeDirForFile(filePath string, creator string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create dir for %s: %w", creator, err)
	}
	return nil
}

// WriteFile writes data to filePath creating missing directories first. The
// file is truncated if it exists.
func WriteFile(filePath string, data []byte, creator string) error {
	if err := MakeDirForFile(filePath, creator); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("can't write %s: %w", creator, err)
	}
	return nil
}
