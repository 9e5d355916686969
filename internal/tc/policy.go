package tc

import (
	"fmt"
	"strings"
	"sync"
)

// ScanMode selects which policy row applies to a scan request.
type ScanMode int

const (
	ModeStartup ScanMode = iota
	ModeQuick
	ModeExtended
)

func (m ScanMode) String() string {
	switch m {
	case ModeStartup:
		return "startup"
	case ModeQuick:
		return "quick"
	case ModeExtended:
		return "extended"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a ScanMode.
func ParseMode(name string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "startup":
		return ModeStartup, nil
	case "quick":
		return ModeQuick, nil
	case "extended":
		return ModeExtended, nil
	default:
		return 0, fmt.Errorf("unknown scan mode %q", name)
	}
}

// ScanOption is a bit set of per-mode policy flags. Combination is
// bitwise OR: a mode with OptLocalDisks|OptRemoteDisks scans both
// locations.
type ScanOption uint8

const (
	OptLocalDisks ScanOption = 1 << iota
	OptRemoteDisks
	OptUncheckedDisks
	OptFolderDetails
)

var optionNames = []struct {
	flag ScanOption
	name string
}{
	{OptLocalDisks, "local_disks"},
	{OptRemoteDisks, "remote_disks"},
	{OptUncheckedDisks, "unchecked_disks"},
	{OptFolderDetails, "folder_details"},
}

// ParseOption converts an option name into its flag.
func ParseOption(name string) (ScanOption, error) {
	for _, on := range optionNames {
		if on.name == strings.ToLower(strings.TrimSpace(name)) {
			return on.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown scan option %q", name)
}

func (o ScanOption) String() string {
	var parts []string
	for _, on := range optionNames {
		if o&on.flag != 0 {
			parts = append(parts, on.name)
		}
	}
	return strings.Join(parts, ",")
}

// Policy resolves the options enabled for a mode. The worker queries it
// at every decision point rather than caching, so a table mutated
// between scans takes effect on the next read.
type Policy interface {
	Options(mode ScanMode) ScanOption
}

// ModeTable is the mutable mode → options table backing Policy. The
// zero value is unusable; construct with NewModeTable.
type ModeTable struct {
	mu   sync.RWMutex
	opts map[ScanMode]ScanOption
}

// NewModeTable returns a table holding the default policy:
// startup scans nothing, quick covers local disks with details,
// extended covers everything.
func NewModeTable() *ModeTable {
	return &ModeTable{
		opts: map[ScanMode]ScanOption{
			ModeStartup:  0,
			ModeQuick:    OptLocalDisks | OptFolderDetails,
			ModeExtended: OptLocalDisks | OptRemoteDisks | OptUncheckedDisks | OptFolderDetails,
		},
	}
}

// Options returns the current option set for a mode.
func (t *ModeTable) Options(mode ScanMode) ScanOption {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.opts[mode]
}

// Set replaces the option set for a mode.
func (t *ModeTable) Set(mode ScanMode, opts ScanOption) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts[mode] = opts
}

// Can reports whether every flag in opt is enabled for the mode.
func (t *ModeTable) Can(mode ScanMode, opt ScanOption) bool {
	return t.Options(mode)&opt == opt
}

var _ Policy = (*ModeTable)(nil)
