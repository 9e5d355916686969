//go:build unix

package fs

import (
	"fmt"
	"io/fs"
	"strconv"
	"syscall"
	"time"

	"tc-go/internal/tc"
)

// ExtractStatData extracts Unix-specific stat data from a FileInfo.
// The inode number serves as the rename-stable system id; it survives
// renames and moves within one filesystem but not across devices, so a
// cross-device move is catalogued as delete + new.
func (m *OSFilesystemManager) ExtractStatData(info fs.FileInfo) (*tc.StatData, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("cannot extract stat data: expected *syscall.Stat_t, got %T", info.Sys())
	}

	return &tc.StatData{
		SystemID: strconv.FormatUint(uint64(stat.Ino), 10),
		// Birth time is not available on most Unix filesystems; the
		// inode change time is the closest stable stand-in.
		Created:  time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec),
		Modified: info.ModTime(),
		Size:     info.Size(),
	}, nil
}
