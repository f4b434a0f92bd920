//go:build windows

package vault

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// diskAvailable returns the bytes available to the current user on the
// volume holding dir.
func diskAvailable(dir string) (uint64, error) {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to convert path: %w", err)
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, fmt.Errorf("vault: failed to get disk stats: %w", err)
	}
	return freeBytesAvailable, nil
}

// syncDir is a no-op: directories cannot be flushed on Windows and
// MoveFileEx already persists the rename.
func syncDir(string) error { return nil }
