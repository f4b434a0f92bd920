//go:build !(linux || darwin || freebsd || windows)

package vault

import "errors"

var errDiskStatsUnsupported = errors.New("vault: disk statistics not supported on this platform")

func diskAvailable(string) (uint64, error) { return 0, errDiskStatsUnsupported }

func syncDir(string) error { return nil }
