//go:build linux

package osfs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx for the creation time; older kernels and some
// filesystems leave STATX_BTIME unset.
func birthTime(name string, info os.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, name, 0, unix.STATX_BTIME, &stx)
	if err == nil && stx.Mask&unix.STATX_BTIME != 0 {
		return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
	return info.ModTime()
}
