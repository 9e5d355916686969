package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tc-go/internal/tc"
)

// MockFile represents a file or directory in the mock filesystem.
// SystemID is assigned once at creation and survives renames, matching
// inode behavior on a real filesystem.
type MockFile struct {
	Content     []byte
	ModTime     time.Time
	IsDirectory bool
	SystemID    string
	Ctime       time.Time
}

// MockFilesystemManager is an in-memory filesystem for testing the scan
// worker. Paths are plain strings; directory structure is implied by
// path prefixes.
type MockFilesystemManager struct {
	mu     sync.Mutex
	files  map[string]*MockFile
	nextID int
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddDirectory adds a directory, assigning it a fresh system id.
func (m *MockFilesystemManager) AddDirectory(path string) *MockFile {
	return m.add(path, nil, true)
}

// AddFile adds a regular file with the given content.
func (m *MockFilesystemManager) AddFile(path string, content []byte) *MockFile {
	return m.add(path, content, false)
}

func (m *MockFilesystemManager) add(path string, content []byte, dir bool) *MockFile {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	f := &MockFile{
		Content:     content,
		ModTime:     now,
		IsDirectory: dir,
		SystemID:    fmt.Sprintf("sys-%d", m.nextID),
		Ctime:       now,
	}
	m.files[path] = f
	return f
}

// Rename moves a file or directory (and everything under it) to a new
// path. System ids are preserved, as they are for a same-filesystem
// rename.
func (m *MockFilesystemManager) Rename(oldPath, newPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p, f := range m.files {
		switch {
		case p == oldPath:
			delete(m.files, p)
			m.files[newPath] = f
		case strings.HasPrefix(p, oldPath+"/"):
			delete(m.files, p)
			m.files[newPath+strings.TrimPrefix(p, oldPath)] = f
		}
	}
}

// Touch sets the modification time of a path.
func (m *MockFilesystemManager) Touch(path string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[path]; ok {
		f.ModTime = t
	}
}

// Remove deletes a path and everything under it.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.files {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.files, p)
		}
	}
}

func (m *MockFilesystemManager) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return newMockFileInfo(filepath.Base(path), f), nil
}

func (m *MockFilesystemManager) ListSubdirs(path string) ([]tc.Entry, error) {
	return m.list(path, true)
}

func (m *MockFilesystemManager) ListFiles(path string) ([]tc.Entry, error) {
	return m.list(path, false)
}

func (m *MockFilesystemManager) list(path string, dirs bool) ([]tc.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		return nil, fmt.Errorf("directory not found: %s", path)
	}

	var entries []tc.Entry
	for p, f := range m.files {
		if filepath.Dir(p) != path || f.IsDirectory != dirs {
			continue
		}
		entries = append(entries, tc.Entry{
			Name: filepath.Base(p),
			Info: newMockFileInfo(filepath.Base(p), f),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *MockFilesystemManager) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if f.IsDirectory {
		return nil, fmt.Errorf("cannot read directory: %s", path)
	}
	return f.Content, nil
}

func (m *MockFilesystemManager) TreeSize(path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		return 0, fmt.Errorf("directory not found: %s", path)
	}

	var total int64
	for p, f := range m.files {
		if f.IsDirectory || !strings.HasPrefix(p, path+"/") {
			continue
		}
		total += int64(len(f.Content))
	}
	return total, nil
}

func (m *MockFilesystemManager) ExtractStatData(info fs.FileInfo) (*tc.StatData, error) {
	mockFile, ok := info.Sys().(*MockFile)
	if !ok {
		return nil, fmt.Errorf("cannot extract stat data: expected *MockFile, got %T", info.Sys())
	}

	return &tc.StatData{
		SystemID: mockFile.SystemID,
		Created:  mockFile.Ctime,
		Modified: mockFile.ModTime,
		Size:     int64(len(mockFile.Content)),
	}, nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name     string
	mockFile *MockFile
}

func newMockFileInfo(name string, f *MockFile) *mockFileInfo {
	return &mockFileInfo{name: name, mockFile: f}
}

func (m *mockFileInfo) Name() string { return m.name }
func (m *mockFileInfo) Size() int64  { return int64(len(m.mockFile.Content)) }
func (m *mockFileInfo) Mode() fs.FileMode {
	if m.mockFile.IsDirectory {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (m *mockFileInfo) ModTime() time.Time { return m.mockFile.ModTime }
func (m *mockFileInfo) IsDir() bool        { return m.mockFile.IsDirectory }
func (m *mockFileInfo) Sys() any           { return m.mockFile }

// Compile-time check
var _ tc.FilesystemManager = (*MockFilesystemManager)(nil)
