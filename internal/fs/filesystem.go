package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tc-go/internal/tc"
)

// OSFilesystemManager is the real filesystem implementation of
// tc.FilesystemManager. It performs actual filesystem operations using
// the os package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a filesystem manager that operates on
// the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Exists reports whether the path exists.
func (m *OSFilesystemManager) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ListSubdirs returns the immediate subdirectories of path. Entries
// that cannot be statted are skipped rather than failing the listing.
func (m *OSFilesystemManager) ListSubdirs(path string) ([]tc.Entry, error) {
	return m.list(path, true)
}

// ListFiles returns the immediate regular files of path.
func (m *OSFilesystemManager) ListFiles(path string) ([]tc.Entry, error) {
	return m.list(path, false)
}

func (m *OSFilesystemManager) list(path string, dirs bool) ([]tc.Entry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var result []tc.Entry
	for _, entry := range entries {
		if dirs {
			if !entry.IsDir() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Vanished between ReadDir and Info; treat as absent.
			continue
		}
		result = append(result, tc.Entry{Name: entry.Name(), Info: info})
	}
	return result, nil
}

// ReadFile reads a whole file into memory.
func (m *OSFilesystemManager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSize returns the total byte size of all regular files under
// path, recursively. Entries that error mid-walk are counted as zero
// rather than failing the sum.
func (m *OSFilesystemManager) TreeSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking directory: %w", err)
	}
	return total, nil
}

// Compile-time check that OSFilesystemManager implements tc.FilesystemManager
var _ tc.FilesystemManager = (*OSFilesystemManager)(nil)
