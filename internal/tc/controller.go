package tc

import (
	"context"
	"sync"
)

// ScanController dispatches scan requests onto their own goroutine so
// callers never block on a tree walk, and exposes the start/cancel
// lifecycle. The worker's single-flight slot is claimed before a run
// context is created: a rejected overlapping request is a logged no-op
// and never touches the cancel handle of the run already in flight.
type ScanController struct {
	worker *ScanWorker
	logger Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScanController creates a controller for the given worker.
func NewScanController(worker *ScanWorker, logger Logger) *ScanController {
	return &ScanController{worker: worker, logger: logger}
}

// Scan starts a scan pass in the background and returns immediately.
func (c *ScanController) Scan(mode ScanMode) {
	if err := c.worker.begin(); err != nil {
		c.logger.Warn("scan request dropped", "mode", mode.String())
		return
	}
	ctx := c.newRun()
	go c.worker.scanAcquired(ctx, mode)
}

// UpdateFolderDetails starts an out-of-band detail refresh in the
// background and returns immediately.
func (c *ScanController) UpdateFolderDetails(refs []FolderRef) {
	if err := c.worker.begin(); err != nil {
		c.logger.Warn("folder detail request dropped")
		return
	}
	ctx := c.newRun()
	go c.worker.detailsAcquired(ctx, refs)
}

// Cancel requests cooperative cancellation of the running pass, if any.
// Already-committed per-folder work is not rolled back.
func (c *ScanController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// newRun installs a fresh run context. Only called with the
// single-flight slot held, so any previous context belongs to a
// finished run and releasing it is a no-op for the worker.
func (c *ScanController) newRun() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	return ctx
}
