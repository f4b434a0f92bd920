package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/pkg/safe"
	"github.com/forest6511/securesafe/pkg/vault"
)

var (
	errNoEntries     = errors.New("no matching credentials")
	errIndexRange    = errors.New("index out of range")
	errMultipleFound = errors.New("several credentials match: choose one with --index or --user")
)

func newGetCmd(a *app) *cobra.Command {
	var (
		user    string
		index   int
		copyOut bool
	)

	cmd := &cobra.Command{
		Use:   "get SITE",
		Short: "Show the password stored for a site",
		Long: `Shows a stored password. When a site holds several credentials they
are listed and one is chosen with --user or --index.

Examples:
  securesafe get example.com
  securesafe get example.com --user alice --copy
  securesafe get example.com --index 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site := args[0]

			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.RetrievePassword(site)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("user") {
				entries = safe.FilterByUsername(entries, user)
			}

			entry, err := selectEntry(entries, index)
			if errors.Is(err, errMultipleFound) {
				listEntries(cmd.ErrOrStderr(), entries)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", site, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Username: %s\n", entry.Username)
			a.emitSecret(cmd, entry.Password, copyOut)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Only consider credentials with this username")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "Pick the Nth credential (1-based, as listed)")
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "Copy the password to the clipboard instead of printing it")
	return cmd
}

// selectEntry picks one entry. index is 1-based; 0 means no index was
// given, which is only acceptable when exactly one entry remains.
func selectEntry(entries []vault.Entry, index int) (vault.Entry, error) {
	switch {
	case len(entries) == 0:
		return vault.Entry{}, errNoEntries
	case index < 0 || index > len(entries):
		return vault.Entry{}, fmt.Errorf("%w: %d (have %d)", errIndexRange, index, len(entries))
	case index > 0:
		return entries[index-1], nil
	case len(entries) == 1:
		return entries[0], nil
	default:
		return vault.Entry{}, errMultipleFound
	}
}

// listEntries prints usernames with their 1-based index.
func listEntries(w io.Writer, entries []vault.Entry) {
	for i, e := range entries {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, e.Username)
	}
}
