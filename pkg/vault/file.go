package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/forest6511/securesafe/internal/logger"
)

// MinDiskSpaceBytes is the free space always required before a write, on
// top of twice the payload size.
const MinDiskSpaceBytes = 1024 * 1024

// writeFileAtomic replaces path with data so that an interruption leaves
// either the previous file or the new one, never a partial write. The
// temporary file lives in the same directory so the final rename stays on
// one filesystem.
func writeFileAtomic(path string, data []byte, log *logger.Logger) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("vault: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(FileMode); err != nil {
		return fmt.Errorf("vault: failed to set temp file permissions: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("vault: failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("vault: failed to flush temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("vault: failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("vault: failed to replace vault file: %w", err)
	}

	// The new file is in place; a failed directory sync only weakens
	// durability of the rename, so it is reported but not returned.
	if syncErr := syncDir(dir); syncErr != nil {
		log.Warn().Err(syncErr).Msg("failed to sync vault directory")
	}
	return nil
}

// checkDiskSpaceForWrite verifies sufficient disk space before a rewrite.
// Failing to read disk statistics is logged and does not block the write.
func (s *Store) checkDiskSpaceForWrite(dataSize int) error {
	available, err := diskAvailable(filepath.Dir(s.path))
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to check disk space")
		return nil
	}

	required := uint64(MinDiskSpaceBytes) + 2*uint64(dataSize)
	if available < required {
		return fmt.Errorf("%w: %d bytes available, need at least %d bytes",
			ErrInsufficientDisk, available, required)
	}
	return nil
}

// checkAndWarnPermissions warns when the vault file or its directory can be
// read by other users. Advisory only.
func (s *Store) checkAndWarnPermissions() {
	if runtime.GOOS == "windows" {
		return
	}

	if info, err := os.Stat(filepath.Dir(s.path)); err == nil {
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			s.log.Warn().Str("perm", fmt.Sprintf("%04o", perm)).
				Msg("vault directory has insecure permissions (expected 0700)")
		}
	}
	if info, err := os.Stat(s.path); err == nil {
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			s.log.Warn().Str("perm", fmt.Sprintf("%04o", perm)).
				Msg("vault file has insecure permissions (expected 0600)")
		}
	}
}
