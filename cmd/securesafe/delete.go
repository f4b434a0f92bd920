package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/pkg/safe"
)

func newDeleteCmd(a *app) *cobra.Command {
	var (
		index int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "delete SITE USERNAME",
		Short: "Delete a stored credential",
		Long: `Deletes a credential. When the username has several passwords at the
site, pick one with --index or remove them all with --all.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, username := args[0], args[1]
			if all && index != 0 {
				return errors.New("--index and --all cannot be used together")
			}

			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.RetrievePassword(site)
			if err != nil {
				return err
			}
			matches := safe.FilterByUsername(entries, username)

			if all {
				if len(matches) == 0 {
					return fmt.Errorf("%s: %w", site, errNoEntries)
				}
				for _, e := range matches {
					if err := s.DeletePassword(site, e.Username, e.Password); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d credential(s) for %s at %s\n", len(matches), username, site)
				return nil
			}

			entry, err := selectEntry(matches, index)
			if errors.Is(err, errMultipleFound) {
				listEntries(cmd.ErrOrStderr(), matches)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", site, err)
			}

			if err := s.DeletePassword(site, entry.Username, entry.Password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted credential for %s at %s\n", username, site)
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Pick the Nth matching credential (1-based)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every credential for this username")
	return cmd
}
