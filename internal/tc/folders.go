package tc

import (
	"context"
	"fmt"
	"path/filepath"

	"tc-go/internal/model"
)

// scanDisks recomputes every disk's online flag. All disks are cleared
// first so a disk whose root disappeared flips offline even if the
// recompute loop fails partway.
func (w *ScanWorker) scanDisks(ctx context.Context) error {
	if err := w.catalog.MarkDisksOffline(); err != nil {
		return fmt.Errorf("marking disks offline: %w", err)
	}

	disks, err := w.catalog.ListDisks()
	if err != nil {
		return fmt.Errorf("listing disks: %w", err)
	}

	for i, disk := range disks {
		if err := ctx.Err(); err != nil {
			return err
		}

		online := w.fsmgr.Exists(diskRoot(disk))
		if err := w.catalog.SetDiskOnline(disk.ID, online); err != nil {
			return fmt.Errorf("updating disk %s: %w", disk.Name, err)
		}
		disk.Online = online

		w.notifier.Progress(Progress{
			DiskName:    disk.Name,
			Step:        StepDisks,
			FolderCount: len(disks),
			FolderIndex: i + 1,
		})
	}

	return nil
}

// diskAllowed resolves the mode's policy for one disk. The policy table
// is consulted on every call so option changes between scans (or even
// between disks) take effect immediately.
func (w *ScanWorker) diskAllowed(mode ScanMode, disk *model.Disk) bool {
	opts := w.policy.Options(mode)

	switch disk.Location {
	case model.LocationLocal:
		if opts&OptLocalDisks == 0 {
			return false
		}
	case model.LocationRemote:
		if opts&OptRemoteDisks == 0 {
			return false
		}
	default:
		return false
	}

	if !disk.Checked && opts&OptUncheckedDisks == 0 {
		return false
	}
	return true
}

// scanFolders reconciles each policy-permitted online disk's folder
// tree against the catalog. Folders still unknown after the walk were
// not seen on disk and are deleted with their covers, images and
// tutorials. On cancellation the walk stops before the delete step so
// unseen folders survive to the next complete pass.
func (w *ScanWorker) scanFolders(ctx context.Context, mode ScanMode) error {
	disks, err := w.catalog.ListDisks()
	if err != nil {
		return fmt.Errorf("listing disks: %w", err)
	}

	for _, disk := range disks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !disk.Online || !w.diskAllowed(mode, disk) {
			continue
		}

		if err := w.catalog.MarkFoldersUnknown(disk.ID); err != nil {
			return fmt.Errorf("marking folders unknown on %s: %w", disk.Name, err)
		}

		if err := w.walk(ctx, disk, diskRoot(disk), "", disk.Depth); err != nil {
			return err
		}

		deleted, err := w.catalog.DeleteUnknownFolders(disk.ID)
		if err != nil {
			return fmt.Errorf("deleting vanished folders on %s: %w", disk.Name, err)
		}
		if deleted > 0 {
			w.logger.Info("folders removed from catalog", "disk", disk.Name, "count", deleted)
		}
	}

	return nil
}

// walk descends depth intermediate levels below absPath, then treats
// each subdirectory as a catalogued folder. An unreadable directory is
// logged and treated as empty for this pass rather than aborting the
// scan. Only context cancellation propagates up.
func (w *ScanWorker) walk(ctx context.Context, disk *model.Disk, absPath, relParent string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subdirs, err := w.fsmgr.ListSubdirs(absPath)
	if err != nil {
		w.logger.Warn("skipping unreadable directory", "path", absPath, "error", err)
		return nil
	}

	if depth > 0 {
		for _, e := range subdirs {
			childRel := e.Name
			if relParent != "" {
				childRel = filepath.Join(relParent, e.Name)
			}
			if err := w.walk(ctx, disk, filepath.Join(absPath, e.Name), childRel, depth-1); err != nil {
				return err
			}
		}
		return nil
	}

	for i, e := range subdirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.reconcileFolder(disk, relParent, e); err != nil {
			w.logger.Error("folder reconcile failed", "disk", disk.Name, "folder", e.Name, "error", err)
		}

		w.notifier.Progress(Progress{
			DiskName:     disk.Name,
			Step:         StepFolders,
			FolderParent: relParent,
			FolderName:   e.Name,
			FolderCount:  len(subdirs),
			FolderIndex:  i + 1,
		})
	}

	return nil
}

// reconcileFolder diffs one discovered directory against the catalog
// and commits the outcome. Lookup order: filesystem identity first
// (rename-stable), then path (identity was reused or never recorded),
// then insert. Rename takes precedence over changed in the final
// status, but a new modified time is stored either way.
func (w *ScanWorker) reconcileFolder(disk *model.Disk, relParent string, e Entry) error {
	sd, err := w.fsmgr.ExtractStatData(e.Info)
	if err != nil {
		return fmt.Errorf("extracting stat data: %w", err)
	}

	f, err := w.catalog.FindFolderBySystemID(disk.ID, sd.SystemID)
	if err != nil {
		return err
	}
	if f != nil {
		status := model.StatusOK
		if !sd.Modified.Equal(f.Modified) {
			f.Modified = sd.Modified
			status = model.StatusChanged
		}
		if f.Parent != relParent || f.Name != e.Name {
			f.Parent = relParent
			f.Name = e.Name
			status = model.StatusRenamed
		}
		f.Status = status
		return w.catalog.UpdateFolderScan(f)
	}

	f, err = w.catalog.FindFolderByPath(disk.ID, relParent, e.Name)
	if err != nil {
		return err
	}
	if f != nil {
		// Same path, different identity: the filesystem reused an
		// inode or this is the first scan with stale ids.
		f.SystemID = sd.SystemID
		f.Created = sd.Created
		f.Modified = sd.Modified
		f.Status = model.StatusNew
		return w.catalog.UpdateFolderScan(f)
	}

	return w.catalog.InsertFolder(&model.Folder{
		ID:       w.idgen.New(),
		DiskID:   disk.ID,
		Parent:   relParent,
		Name:     e.Name,
		SystemID: sd.SystemID,
		Status:   model.StatusNew,
		Created:  sd.Created,
		Modified: sd.Modified,
		Checked:  true,
	})
}
