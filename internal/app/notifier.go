package app

import (
	"fmt"
	"io"

	"tc-go/internal/tc"
)

// ConsoleNotifier renders scan lifecycle signals as single lines on the
// given writer. Writes are synchronous but cheap; terminal output is
// fast enough that the worker is never meaningfully blocked.
type ConsoleNotifier struct {
	w io.Writer
}

var _ tc.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) ScanStarted(mode tc.ScanMode) {
	fmt.Fprintf(n.w, "scan started (%s)\n", mode)
}

func (n *ConsoleNotifier) ScanFinished(canceled bool) {
	if canceled {
		fmt.Fprintln(n.w, "scan canceled")
		return
	}
	fmt.Fprintln(n.w, "scan finished")
}

func (n *ConsoleNotifier) Progress(p tc.Progress) {
	switch p.Step {
	case tc.StepDisks:
		fmt.Fprintf(n.w, "  disk %s\n", p.DiskName)
	default:
		fmt.Fprintf(n.w, "  [%s] %s: %s/%s (%d/%d)\n",
			p.Step, p.DiskName, p.FolderParent, p.FolderName, p.FolderIndex, p.FolderCount)
	}
}
