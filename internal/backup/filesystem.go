package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"tc-go/internal/tc"
)

// FileSystemTarget stores snapshots as plain files in a directory.
type FileSystemTarget struct {
	root string
}

var _ tc.BackupTarget = (*FileSystemTarget)(nil)

// NewFileSystemTarget creates a filesystem target rooted at the given
// directory, creating it if needed.
func NewFileSystemTarget(root string) (*FileSystemTarget, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileSystemTarget{root: root}, nil
}

// Put writes the snapshot atomically: data goes to a temp file in the
// same directory, which is renamed into place once complete.
func (t *FileSystemTarget) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	destPath := filepath.Join(t.root, name)

	tmpFile, err := os.CreateTemp(t.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Get reads the named snapshot and writes it to w.
func (t *FileSystemTarget) Get(ctx context.Context, name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(t.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found: %s", name)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	return nil
}

// List returns stored snapshot names, newest first. Snapshot names
// embed a timestamp, so reverse lexical order is reverse chronological.
func (t *FileSystemTarget) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// ValidateSetup verifies that the backup directory is accessible.
func (t *FileSystemTarget) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(t.root)
	if err != nil {
		return fmt.Errorf("backup directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup path is not a directory: %s", t.root)
	}
	return nil
}
