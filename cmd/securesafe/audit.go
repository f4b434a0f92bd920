package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/internal/cli"
	"github.com/forest6511/securesafe/pkg/security"
)

func newAuditCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit [PATTERN...]",
		Short: "Report weak and reused passwords",
		Long: `Checks every stored credential for short passwords and for passwords
shared between credentials. Patterns limit the check to matching sites.
Passwords are never printed.`,
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

			var creds []security.Credential
			for _, site := range sites {
				entries, err := s.RetrievePassword(site)
				if err != nil {
					return err
				}
				for _, e := range entries {
					creds = append(creds, security.Credential{Site: site, Username: e.Username, Password: e.Password})
				}
			}

			analyzer, err := security.NewAnalyzer()
			if err != nil {
				return err
			}
			report := analyzer.Analyze(creds)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "Credentials: %d\n", report.Total)
			fmt.Fprintf(out, "Score:       %d/100\n", report.Score)
			if len(report.Weak) > 0 {
				fmt.Fprintln(out, "\nWeak passwords (under 8 characters):")
				for _, r := range report.Weak {
					fmt.Fprintf(out, "  %s (%s)\n", r.Site, r.Username)
				}
			}
			if len(report.Duplicates) > 0 {
				fmt.Fprintln(out, "\nReused passwords:")
				for i, g := range report.Duplicates {
					fmt.Fprintf(out, "  group %d, %d credentials:\n", i+1, g.Count)
					for _, r := range g.Refs {
						fmt.Fprintf(out, "    %s (%s)\n", r.Site, r.Username)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
