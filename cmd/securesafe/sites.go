package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/internal/cli"
)

func newSitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sites [PATTERN...]",
		Short: "List stored sites",
		Long: `Lists stored sites, optionally filtered by glob patterns such as
"*.google.com". Matching ignores case.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			sites, err := cli.MatchSites(args, s.Sites())
			if err != nil {
				return err
			}
			if len(sites) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No sites found.")
			}
			for _, site := range sites {
				fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	}
}
