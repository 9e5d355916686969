package tc

// Scan step names carried in progress updates.
const (
	StepDisks   = "disks"
	StepFolders = "folders"
	StepDetails = "details"
)

// Progress describes the worker's position within a scan pass.
// FolderIndex counts from 1 to FolderCount within the current batch.
type Progress struct {
	DiskName     string
	Step         string
	FolderParent string
	FolderName   string
	FolderCount  int
	FolderIndex  int
}

// Notifier receives one-way scan lifecycle signals. Calls are
// fire-and-forget from the worker's goroutine: implementations must not
// block, or must hand off to their own goroutine.
type Notifier interface {
	ScanStarted(mode ScanMode)
	ScanFinished(canceled bool)
	Progress(p Progress)
}

// NopNotifier discards all signals. Use in tests and headless runs.
type NopNotifier struct{}

func NewNopNotifier() *NopNotifier { return &NopNotifier{} }

func (*NopNotifier) ScanStarted(ScanMode) {}
func (*NopNotifier) ScanFinished(bool)    {}
func (*NopNotifier) Progress(Progress)    {}
