package tc

import (
	"tc-go/internal/descriptor"
	"tc-go/internal/model"
)

// FolderRef addresses a folder without database ids: the disk by its
// split root path, the folder by its disk-relative parent and name.
// Used by out-of-band detail refreshes.
type FolderRef struct {
	DiskParent   string
	DiskName     string
	FolderParent string
	FolderName   string
}

// Catalog is the persisted entity graph the scan worker reconciles
// against. Implementations commit each method as its own unit of work;
// multi-step operations (cascading deletes, tutorial application) are
// single transactions internally, children before parents, so partial
// failure never leaves orphaned rows.
type Catalog interface {
	// Disk operations

	// ListDisks returns all disks ordered by their ordering index.
	ListDisks() ([]*model.Disk, error)

	// FindDiskByPath returns the disk with the given split root path,
	// or nil when absent.
	FindDiskByPath(parent, name string) (*model.Disk, error)

	// UpsertDisk inserts the disk or, when (parent, name) already
	// exists, updates its configurable attributes in place.
	UpsertDisk(d *model.Disk) error

	// MarkDisksOffline clears the online flag on every disk. Run before
	// recomputing liveness so disks whose root vanished flip correctly
	// even if enumeration fails partway.
	MarkDisksOffline() error

	// SetDiskOnline records a disk's computed liveness.
	SetDiskOnline(diskID string, online bool) error

	// DeleteDisk removes a disk and, transactionally, all of its
	// folders with their covers, images and tutorials.
	DeleteDisk(diskID string) error

	// Folder operations

	// MarkFoldersUnknown resets every folder of a disk to status
	// unknown at the start of a tree walk.
	MarkFoldersUnknown(diskID string) error

	// FindFolderBySystemID returns the folder with the given
	// filesystem identity, or nil. The primary rename-stable lookup.
	FindFolderBySystemID(diskID, systemID string) (*model.Folder, error)

	// FindFolderByPath returns the folder at (parent, name), or nil.
	// The fallback lookup for reused or never-recorded system ids.
	FindFolderByPath(diskID, parent, name string) (*model.Folder, error)

	// InsertFolder records a newly discovered folder.
	InsertFolder(f *model.Folder) error

	// UpdateFolderScan persists the reconciliation outcome for one
	// folder: status, path, system id and timestamps.
	UpdateFolderScan(f *model.Folder) error

	// UpdateFolderDetails persists the detail-phase outcome for one
	// folder: size and error text.
	UpdateFolderDetails(f *model.Folder) error

	// ListFoldersByDisk returns all folders of a disk.
	ListFoldersByDisk(diskID string) ([]*model.Folder, error)

	// DeleteUnknownFolders removes every folder of the disk still at
	// status unknown, cascading to covers, images and tutorials in one
	// transaction. Returns the number of folders deleted.
	DeleteUnknownFolders(diskID string) (int, error)

	// Cover operations

	FindCoverByFolder(folderID string) (*model.Cover, error)
	SaveCover(c *model.Cover) error
	DeleteCoverByFolder(folderID string) error

	// Image operations

	ListImagesByFolder(folderID string) ([]*model.Image, error)
	SaveImage(img *model.Image) error
	DeleteImage(imageID string) error

	// Tutorial operations

	// ApplyTutorial replaces the folder's tutorial metadata with the
	// parsed descriptor in one transaction: publisher, author, tag and
	// learning-path rows are looked up or created, link sets are
	// replaced (not merged), and the denormalized aggregates rebuilt.
	ApplyTutorial(folderID string, d *descriptor.Data) error

	// FindTutorialByFolder returns the folder's tutorial row, or nil.
	FindTutorialByFolder(folderID string) (*model.Tutorial, error)

	// PruneAuthors deletes authors referenced by zero tutorials.
	// Returns the number of rows removed. Authors are otherwise never
	// deleted automatically when unlinked.
	PruneAuthors() (int, error)

	// BackupTo writes a complete snapshot of the catalog to destPath.
	BackupTo(destPath string) error

	// Close closes the underlying store.
	Close() error
}
