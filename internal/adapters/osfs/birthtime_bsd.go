//go:build darwin || freebsd

package osfs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(name string, info os.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(name, &st); err == nil {
		return time.Unix(st.Btim.Unix())
	}
	return info.ModTime()
}
