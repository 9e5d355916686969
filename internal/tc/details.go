package tc

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"tc-go/internal/descriptor"
	"tc-go/internal/model"
)

// DescriptorFile is the per-folder metadata file name.
const DescriptorFile = "info.tc"

// coverCandidates are checked in order; the first that exists wins and
// its position determines the stored format, without content sniffing.
var coverCandidates = []struct {
	name   string
	format string
}{
	{"cover.jpg", "jpg"},
	{"cover.png", "png"},
}

// imageFileRE matches numbered preview files image<N>.<ext>. The
// numeric suffix is limited to two digits; 1..99 is enforced after
// parsing so image0.jpg never matches.
var imageFileRE = regexp.MustCompile(`(?i)^image([0-9]{1,2})\.[a-z0-9]+$`)

// scanDetails runs the folder-details phase: for every folder on a
// policy-permitted online disk that is not already ok with a known
// size, refresh size, cover, images and descriptor metadata. Progress
// is emitted per folder even when the mode's policy disables
// extraction.
func (w *ScanWorker) scanDetails(ctx context.Context, mode ScanMode) error {
	extract := w.policy.Options(mode)&OptFolderDetails != 0

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

		folders, err := w.catalog.ListFoldersByDisk(disk.ID)
		if err != nil {
			return fmt.Errorf("listing folders on %s: %w", disk.Name, err)
		}

		for i, folder := range folders {
			if err := ctx.Err(); err != nil {
				return err
			}

			w.notifier.Progress(Progress{
				DiskName:     disk.Name,
				Step:         StepDetails,
				FolderParent: folder.Parent,
				FolderName:   folder.Name,
				FolderCount:  len(folders),
				FolderIndex:  i + 1,
			})

			if !extract {
				continue
			}
			if folder.Status == model.StatusOK && folder.Size > 0 && folder.Error == "" {
				continue
			}

			if err := w.refreshFolderDetails(disk, folder); err != nil {
				w.logger.Error("folder detail refresh failed", "disk", disk.Name, "folder", folder.Name, "error", err)
			}
		}
	}

	return nil
}

// refreshFolderDetails re-extracts one folder's size, cover, preview
// images and descriptor, then commits. Descriptor validation failures
// are recorded on the folder and reset the tutorial to defaults; they
// never abort the scan.
func (w *ScanWorker) refreshFolderDetails(disk *model.Disk, folder *model.Folder) error {
	abs := filepath.Join(diskRoot(disk), folder.Parent, folder.Name)

	size, err := w.fsmgr.TreeSize(abs)
	if err != nil {
		folder.Error = fmt.Sprintf("%s: %v", abs, err)
		return w.catalog.UpdateFolderDetails(folder)
	}
	folder.Size = size
	folder.Error = ""

	if err := w.refreshCover(folder, abs); err != nil {
		w.logger.Warn("cover refresh failed", "folder", folder.Name, "error", err)
	}
	if err := w.refreshImages(folder, abs); err != nil {
		w.logger.Warn("image refresh failed", "folder", folder.Name, "error", err)
	}
	if err := w.refreshTutorial(folder, abs); err != nil {
		return err
	}

	return w.catalog.UpdateFolderDetails(folder)
}

// refreshCover checks the candidate cover files in order. A fresh
// stored cover (same identity, size, mtime) skips the byte read
// entirely. No candidate on disk removes any attached cover row.
func (w *ScanWorker) refreshCover(folder *model.Folder, abs string) error {
	for _, cand := range coverCandidates {
		p := filepath.Join(abs, cand.name)
		info, err := w.fsmgr.Stat(p)
		if err != nil {
			continue
		}

		sd, err := w.fsmgr.ExtractStatData(info)
		if err != nil {
			return err
		}

		existing, err := w.catalog.FindCoverByFolder(folder.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.SystemID == sd.SystemID &&
			existing.Size == sd.Size && existing.Modified.Equal(sd.Modified) {
			return nil
		}

		data, err := w.fsmgr.ReadFile(p)
		if err != nil {
			return err
		}

		cover := existing
		if cover == nil {
			cover = &model.Cover{ID: w.idgen.New(), FolderID: folder.ID}
		}
		cover.Format = cand.format
		cover.SystemID = sd.SystemID
		cover.Created = sd.Created
		cover.Modified = sd.Modified
		cover.Size = sd.Size
		cover.Data = data
		return w.catalog.SaveCover(cover)
	}

	return w.catalog.DeleteCoverByFolder(folder.ID)
}

// refreshImages reconciles image<N>.<ext> files against the stored
// image rows by filename: remove rows whose file vanished, re-read rows
// whose file changed, add rows for new files. Unchanged files are not
// re-read.
func (w *ScanWorker) refreshImages(folder *model.Folder, abs string) error {
	files, err := w.fsmgr.ListFiles(abs)
	if err != nil {
		return err
	}

	onDisk := make(map[string]Entry)
	for _, e := range files {
		m := imageFileRE.FindStringSubmatch(e.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 99 {
			continue
		}
		onDisk[e.Name] = e
	}

	rows, err := w.catalog.ListImagesByFolder(folder.ID)
	if err != nil {
		return err
	}

	for _, row := range rows {
		e, ok := onDisk[row.Name]
		if !ok {
			if err := w.catalog.DeleteImage(row.ID); err != nil {
				return err
			}
			continue
		}
		delete(onDisk, row.Name)

		sd, err := w.fsmgr.ExtractStatData(e.Info)
		if err != nil {
			return err
		}
		if row.SystemID == sd.SystemID && row.Size == sd.Size && row.Modified.Equal(sd.Modified) {
			continue
		}

		data, err := w.fsmgr.ReadFile(filepath.Join(abs, row.Name))
		if err != nil {
			return err
		}
		row.SystemID = sd.SystemID
		row.Created = sd.Created
		row.Modified = sd.Modified
		row.Size = sd.Size
		row.Data = data
		if err := w.catalog.SaveImage(row); err != nil {
			return err
		}
	}

	for name, e := range onDisk {
		sd, err := w.fsmgr.ExtractStatData(e.Info)
		if err != nil {
			return err
		}
		data, err := w.fsmgr.ReadFile(filepath.Join(abs, name))
		if err != nil {
			return err
		}
		img := &model.Image{
			ID:       w.idgen.New(),
			FolderID: folder.ID,
			Name:     name,
			SystemID: sd.SystemID,
			Created:  sd.Created,
			Modified: sd.Modified,
			Size:     sd.Size,
			Data:     data,
		}
		if err := w.catalog.SaveImage(img); err != nil {
			return err
		}
	}

	return nil
}

// refreshTutorial loads the folder's descriptor and applies it to the
// tutorial graph. A missing descriptor means "reset to defaults"; an
// invalid one records the error on the folder and applies defaults, so
// the folder keeps its catalog identity with an error indicator instead
// of stale metadata.
func (w *ScanWorker) refreshTutorial(folder *model.Folder, abs string) error {
	descPath := filepath.Join(abs, DescriptorFile)

	text := ""
	if data, err := w.fsmgr.ReadFile(descPath); err == nil {
		text = string(data)
	}

	d, err := descriptor.Parse(text)
	if err != nil {
		folder.Error = fmt.Sprintf("%s: %v", descPath, err)
		d = descriptor.Defaults()
	}

	return w.catalog.ApplyTutorial(folder.ID, d)
}
