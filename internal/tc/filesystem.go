package tc

import (
	"io/fs"
	"time"
)

// StatData is the filesystem identity and staleness data recorded for
// disks, folders and cached image files. SystemID is the
// rename-stable inode-equivalent id; two stats of the same live file
// yield the same SystemID even after a rename within the filesystem.
// Moves across filesystem boundaries do not preserve it, in which case
// a renamed folder is catalogued as deleted + new.
type StatData struct {
	SystemID string
	Created  time.Time
	Modified time.Time
	Size     int64
}

// Entry is one directory entry with its stat info attached, so callers
// can extract StatData without a second stat call.
type Entry struct {
	Name string
	Info fs.FileInfo
}

// FilesystemManager abstracts filesystem access so the scan worker can
// be tested without touching a real disk.
type FilesystemManager interface {
	// Exists reports whether the path exists at all.
	Exists(path string) bool

	// Stat returns fresh file info for a path.
	Stat(path string) (fs.FileInfo, error)

	// ListSubdirs returns the immediate subdirectories of path.
	ListSubdirs(path string) ([]Entry, error)

	// ListFiles returns the immediate regular files of path.
	ListFiles(path string) ([]Entry, error)

	// ReadFile reads a whole file into memory.
	ReadFile(path string) ([]byte, error)

	// TreeSize returns the total size in bytes of all regular files
	// under path, recursively.
	TreeSize(path string) (int64, error)

	// ExtractStatData pulls platform stat data (system id, timestamps,
	// size) out of a FileInfo produced by this manager.
	ExtractStatData(info fs.FileInfo) (*StatData, error)
}
