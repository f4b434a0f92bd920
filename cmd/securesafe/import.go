package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/pkg/importer"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		from   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import logins from another password manager",
		Long: `Imports logins from a 1Password CSV, Bitwarden JSON (unencrypted) or
LastPass CSV export. Items that are not logins, or that have no username or
password, are skipped and listed.

Examples:
  securesafe import --from bitwarden bitwarden_export.json
  securesafe import --from lastpass lastpass.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := importer.GetParser(importer.Source(strings.ToLower(from)))
			if err != nil {
				return fmt.Errorf("invalid --from value '%s': must be one of %v", from, importer.ValidSources())
			}

			data, err := readImportFile(args[0])
			if err != nil {
				return err
			}

			result, err := parser.Parse(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s file: %w", parser.Source(), err)
			}

			errOut := cmd.ErrOrStderr()
			for _, warning := range result.Warnings {
				fmt.Fprintf(errOut, "Warning: %s\n", warning)
			}
			for _, skipped := range result.Skipped {
				fmt.Fprintf(errOut, "Skipped: %s (%s)\n", skipped.Name, skipped.Reason)
			}

			out := cmd.OutOrStdout()
			if len(result.Records) == 0 {
				fmt.Fprintln(out, "No logins found in file")
				return nil
			}
			if dryRun {
				for _, r := range result.Records {
					fmt.Fprintf(out, "Would import %s (%s)\n", r.Site, r.Entry.Username)
				}
				return nil
			}

			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Import(result.Records)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d credential(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Import source: 1password, bitwarden, lastpass")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be imported without touching the vault")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// checkImportPath resolves path and refuses symlinks and non-regular files.
func checkImportPath(path string) (string, os.FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %s", path)
		}
		return "", nil, fmt.Errorf("failed to access file: %w", err)
	}

	// Security check: reject symlinks
	if info.Mode()&os.ModeSymlink != 0 {
		return "", nil, fmt.Errorf("security: refusing to read symlink: %s", absPath)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	return absPath, info, nil
}

// readImportFile reads an export file of bounded size.
func readImportFile(path string) ([]byte, error) {
	absPath, info, err := checkImportPath(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > importer.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), importer.MaxFileSize)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
