//go:build windows

package filemanager

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// atomicRename replaces dst with src. Windows refuses to rename over a file
// that is open elsewhere, so the destination is removed and the rename retried once.
func atomicRename(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		// ERROR_ACCESS_DENIED = 5, ERROR_ALREADY_EXISTS = 183
		if errno, ok := linkErr.Err.(syscall.Errno); ok && (errno == 5 || errno == 183) {
			_ = os.Remove(dst)
			time.Sleep(10 * time.Millisecond)
			return os.Rename(src, dst)
		}
	}

	return err
}
