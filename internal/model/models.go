package model

import "time"

// DiskLocation classifies where a disk physically lives.
type DiskLocation string

const (
	LocationLocal  DiskLocation = "local"
	LocationRemote DiskLocation = "remote"
)

// DiskRole describes what a disk is used for.
type DiskRole string

const (
	RoleDefault   DiskRole = "default"
	RoleBackup    DiskRole = "backup"
	RoleUploads   DiskRole = "uploads"
	RoleScheduled DiskRole = "scheduled"
)

// FolderStatus is the lifecycle state assigned to a folder during a scan.
type FolderStatus string

const (
	StatusUnknown FolderStatus = "unknown"
	StatusOK      FolderStatus = "ok"
	StatusChanged FolderStatus = "changed"
	StatusRenamed FolderStatus = "renamed"
	StatusNew     FolderStatus = "new"
	StatusDeleted FolderStatus = "deleted"
)

// Disk represents a root filesystem location the catalog monitors.
// The root path is split into Parent + Name so a disk can be relocated
// without touching its folders. (Parent, Name) is unique.
type Disk struct {
	ID       string // UUID
	Ord      int    // Display/processing order
	Parent   string // Parent path of the disk root
	Name     string // Leaf name of the disk root
	Location DiskLocation
	Role     DiskRole
	Depth    int  // Levels below the root where tutorial folders live
	Checked  bool // User-enabled for scanning
	Online   bool // Computed each scan: does the root path exist
	Status   string
}

// Folder is one catalogued tutorial directory.
// SystemID is the filesystem's rename-stable identity (inode number);
// it is the primary reconciliation key, with (Parent, Name) as fallback.
type Folder struct {
	ID       string // UUID
	DiskID   string
	Parent   string // Path relative to the disk root (may be empty)
	Name     string // Leaf directory name
	SystemID string // Inode-equivalent id; empty when never statted
	Status   FolderStatus
	Created  time.Time
	Modified time.Time
	Size     int64 // Total bytes, refreshed in the details phase
	Checked  bool
	Error    string // Last descriptor/extraction error, empty when clean
}

// Cover holds cached cover image bytes for a folder, plus the stat data
// of the source file so staleness can be decided without re-reading it.
type Cover struct {
	ID       string
	FolderID string
	Format   string // "jpg" or "png", decided by candidate filename
	SystemID string
	Created  time.Time
	Modified time.Time
	Size     int64
	Data     []byte
}

// Image is a numbered preview image (image<N>.<ext>) within a folder.
type Image struct {
	ID       string
	FolderID string
	Name     string // Source filename, unique per folder
	SystemID string
	Created  time.Time
	Modified time.Time
	Size     int64
	Data     []byte
}

// Tutorial carries the descriptor-derived metadata for a folder.
// AllAuthors/AllTags/AllPaths are denormalized aggregates used for
// filtering without joins; they are rebuilt on every descriptor load.
type Tutorial struct {
	ID          string
	FolderID    string
	Title       string
	PublisherID string
	Released    string
	Duration    int // Minutes
	Level       int // Bit set: beginner|intermediate|advanced
	Rating      int // -5..5
	URL         string
	Complete    bool
	Online      bool
	Todo        bool
	Progress    string // "not started", "started", "finished"
	Description string
	AllAuthors  string
	AllTags     string
	AllPaths    string
}

// Author is a lookup entity, unique by name.
type Author struct {
	ID   string
	Name string
}

// Publisher is a lookup entity, unique by name. The empty name is a
// valid identity meaning "unspecified".
type Publisher struct {
	ID   string
	Name string
}

// Tag sources distinguish publisher-supplied tags from personal ones.
const (
	TagSourcePublisher = "publisher"
	TagSourcePersonal  = "personal"
)

// Tag is a lookup entity, unique by (Name, Source).
type Tag struct {
	ID     string
	Name   string
	Source string
}

// LearningPath is an ordered grouping of tutorials, scoped under a
// publisher. Membership position lives on the association row.
type LearningPath struct {
	ID          string
	PublisherID string
	Name        string
}
