package tc_test

import (
	"sync"
	"testing"
	"time"

	"tc-go/internal/tc"
	"tc-go/internal/testutil"
)

// signalNotifier records lifecycle signals and closes done on every
// ScanFinished.
type signalNotifier struct {
	mu       sync.Mutex
	started  int
	canceled bool
	done     chan struct{}
}

func newSignalNotifier() *signalNotifier {
	return &signalNotifier{done: make(chan struct{}, 4)}
}

func (n *signalNotifier) ScanStarted(tc.ScanMode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started++
}

func (n *signalNotifier) ScanFinished(canceled bool) {
	n.mu.Lock()
	n.canceled = canceled
	n.mu.Unlock()
	n.done <- struct{}{}
}

func (n *signalNotifier) Progress(tc.Progress) {}

func (n *signalNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the scan to finish")
	}
}

func newControllerFixture(t *testing.T) (*tc.ScanController, *scanFixture, *signalNotifier) {
	t.Helper()

	fx := newScanFixture(t)
	notifier := newSignalNotifier()
	worker := tc.NewScanWorker(fx.catalog, fx.fsmgr, tc.NewModeTable(), notifier,
		tc.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	controller := tc.NewScanController(worker, tc.NewNopLogger())
	return controller, fx, notifier
}

func TestScanController_Scan(t *testing.T) {
	controller, fx, notifier := newControllerFixture(t)
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")

	controller.Scan(tc.ModeQuick)
	notifier.wait(t)

	if notifier.canceled {
		t.Error("scan reported as canceled")
	}
	if fx.folder(t, "", "GoCourse") == nil {
		t.Error("folder not catalogued by the dispatched scan")
	}
}

func TestScanController_UpdateFolderDetails(t *testing.T) {
	controller, fx, notifier := newControllerFixture(t)
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
	fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("jpg"))

	controller.Scan(tc.ModeQuick)
	notifier.wait(t)

	controller.UpdateFolderDetails([]tc.FolderRef{
		{DiskParent: "/media", DiskName: "tutorials", FolderName: "GoCourse"},
	})
	notifier.wait(t)

	f := fx.folder(t, "", "GoCourse")
	cover, err := fx.catalog.FindCoverByFolder(f.ID)
	if err != nil {
		t.Fatalf("FindCoverByFolder() error = %v", err)
	}
	if cover == nil {
		t.Error("cover not extracted by the dispatched refresh")
	}
}

func TestScanController_Cancel(t *testing.T) {
	fx := newScanFixture(t)
	notifier := newSignalNotifier()
	gated := &gatedFilesystem{
		MockFilesystemManager: fx.fsmgr,
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	worker := tc.NewScanWorker(fx.catalog, gated, tc.NewModeTable(), notifier,
		tc.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	controller := tc.NewScanController(worker, tc.NewNopLogger())
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")

	controller.Scan(tc.ModeQuick)
	<-gated.entered
	controller.Cancel()
	close(gated.release)
	notifier.wait(t)

	if !notifier.canceled {
		t.Error("ScanFinished(canceled) = false after Cancel")
	}
	if worker.Scanning() {
		t.Error("worker stuck scanning after cancellation")
	}
}

// A rejected overlapping request must not replace the running scan's
// cancel handle: Cancel issued afterwards still stops the first scan.
func TestScanController_CancelAfterRejectedRequest(t *testing.T) {
	fx := newScanFixture(t)
	notifier := newSignalNotifier()
	gated := &gatedFilesystem{
		MockFilesystemManager: fx.fsmgr,
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	worker := tc.NewScanWorker(fx.catalog, gated, tc.NewModeTable(), notifier,
		tc.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	controller := tc.NewScanController(worker, tc.NewNopLogger())
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")

	controller.Scan(tc.ModeQuick)
	<-gated.entered
	controller.Scan(tc.ModeQuick)
	controller.Cancel()
	close(gated.release)
	notifier.wait(t)

	if !notifier.canceled {
		t.Error("Cancel() after a rejected request did not stop the running scan")
	}
	if fx.folder(t, "", "GoCourse") != nil {
		t.Error("canceled scan catalogued a folder")
	}
	if worker.Scanning() {
		t.Error("worker stuck scanning after cancellation")
	}
}

// Cancel before any scan must be a no-op.
func TestScanController_CancelIdle(t *testing.T) {
	controller, _, _ := newControllerFixture(t)
	controller.Cancel()
}

var _ tc.Notifier = (*signalNotifier)(nil)
