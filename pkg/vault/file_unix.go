//go:build linux || darwin || freebsd

package vault

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// diskAvailable returns the bytes available to unprivileged users on the
// filesystem holding dir.
func diskAvailable(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("vault: failed to get disk stats: %w", err)
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}

// syncDir flushes directory metadata so a completed rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := unix.Fsync(int(d.Fd())); err != nil {
		return fmt.Errorf("vault: fsync %s: %w", dir, err)
	}
	return nil
}
