package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file name inside ~/.securesafe.
const DefaultFileName = "config.yaml"

// DefaultPath returns ~/.securesafe/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".securesafe", DefaultFileName), nil
}

// parseFile reads a YAML config file. Symlinks and files writable by group
// or others are refused. A missing file returns an error wrapping
// fs.ErrNotExist.
func parseFile(path string) (*Config, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: file not found: %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("config: failed to access file: %w", err)
	}

	// Security check: reject symlinks
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigSymlink, path)
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0022 != 0 {
			return nil, fmt.Errorf("%w: %o (must not be group or world writable)", ErrConfigInsecure, perm)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}
