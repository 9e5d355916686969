package tc

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"tc-go/internal/model"
)

// ErrScanInFlight is returned when a scan is requested while another is
// still running. Requests are rejected, never queued.
var ErrScanInFlight = errors.New("a scan is already in progress")

// ScanWorker orchestrates a full scan pass: disk liveness, folder tree
// diff, per-folder detail extraction. Exactly one scan runs at a time;
// cancellation is cooperative through the context and stops the walk
// without rolling back folders already committed.
type ScanWorker struct {
	catalog  Catalog
	fsmgr    FilesystemManager
	policy   Policy
	notifier Notifier
	logger   Logger
	clock    Clock
	idgen    IDGenerator

	mu       sync.Mutex
	scanning bool
}

// NewScanWorker creates a ScanWorker with the provided dependencies.
func NewScanWorker(catalog Catalog, fsmgr FilesystemManager, policy Policy, notifier Notifier, logger Logger, clock Clock, idgen IDGenerator) *ScanWorker {
	return &ScanWorker{
		catalog:  catalog,
		fsmgr:    fsmgr,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Scanning reports whether a scan is currently in flight.
func (w *ScanWorker) Scanning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scanning
}

func (w *ScanWorker) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scanning {
		return ErrScanInFlight
	}
	w.scanning = true
	return nil
}

func (w *ScanWorker) end() {
	w.mu.Lock()
	w.scanning = false
	w.mu.Unlock()
}

// Scan runs the full pipeline (disks → folders → folder details) for
// the given mode. Failures are logged and returned, but the worker is
// always back at idle and ScanFinished is always emitted, so the
// caller's state machine can never get stuck. Cancellation is not an
// error: it finishes the scan early with the canceled flag set.
func (w *ScanWorker) Scan(ctx context.Context, mode ScanMode) error {
	if err := w.begin(); err != nil {
		w.logger.Warn("scan request rejected, already scanning", "mode", mode.String())
		return err
	}
	return w.scanAcquired(ctx, mode)
}

// scanAcquired runs the pipeline for a request that already holds the
// single-flight slot, and releases the slot when done.
func (w *ScanWorker) scanAcquired(ctx context.Context, mode ScanMode) error {
	defer w.end()

	started := w.clock.Now()
	w.logger.Info("scan started", "mode", mode.String())
	w.notifier.ScanStarted(mode)

	canceled := false
	defer func() {
		w.notifier.ScanFinished(canceled)
	}()

	err := w.runScan(ctx, mode)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		canceled = true
		w.logger.Info("scan canceled", "mode", mode.String())
		return nil
	}
	if err != nil {
		w.logger.Error("scan failed", "mode", mode.String(), "error", err)
		return err
	}

	w.logger.Info("scan finished", "mode", mode.String(), "elapsed", w.clock.Now().Sub(started))
	return nil
}

func (w *ScanWorker) runScan(ctx context.Context, mode ScanMode) error {
	if err := w.scanDisks(ctx); err != nil {
		return err
	}
	if err := w.scanFolders(ctx, mode); err != nil {
		return err
	}
	return w.scanDetails(ctx, mode)
}

// UpdateFolderDetails force-refreshes cover, images and descriptor for
// an explicit list of folders, without a tree walk. Single-flight and
// cancellation rules match Scan.
func (w *ScanWorker) UpdateFolderDetails(ctx context.Context, refs []FolderRef) error {
	if err := w.begin(); err != nil {
		w.logger.Warn("folder detail refresh rejected, already scanning")
		return err
	}
	return w.detailsAcquired(ctx, refs)
}

// detailsAcquired refreshes the listed folders for a request that
// already holds the single-flight slot, and releases the slot when
// done.
func (w *ScanWorker) detailsAcquired(ctx context.Context, refs []FolderRef) error {
	defer w.end()

	w.notifier.ScanStarted(ModeQuick)
	canceled := false
	defer func() {
		w.notifier.ScanFinished(canceled)
	}()

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			canceled = true
			return nil
		}

		disk, err := w.catalog.FindDiskByPath(ref.DiskParent, ref.DiskName)
		if err != nil {
			return err
		}
		if disk == nil {
			w.logger.Warn("unknown disk in folder refresh", "parent", ref.DiskParent, "name", ref.DiskName)
			continue
		}

		folder, err := w.catalog.FindFolderByPath(disk.ID, ref.FolderParent, ref.FolderName)
		if err != nil {
			return err
		}
		if folder == nil {
			w.logger.Warn("unknown folder in folder refresh", "parent", ref.FolderParent, "name", ref.FolderName)
			continue
		}

		w.notifier.Progress(Progress{
			DiskName:     disk.Name,
			Step:         StepDetails,
			FolderParent: folder.Parent,
			FolderName:   folder.Name,
			FolderCount:  len(refs),
			FolderIndex:  i + 1,
		})

		if err := w.refreshFolderDetails(disk, folder); err != nil {
			return err
		}
	}

	return nil
}

// diskRoot joins a disk's split root path back together.
func diskRoot(d *model.Disk) string {
	return filepath.Join(d.Parent, d.Name)
}
