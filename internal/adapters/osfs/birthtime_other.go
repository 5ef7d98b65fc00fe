//go:build !linux && !darwin && !freebsd && !windows

package osfs

import (
	"os"
	"time"
)

func birthTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
