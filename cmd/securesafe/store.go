package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/pkg/security"
)

func newStoreCmd(a *app) *cobra.Command {
	var (
		generate bool
		copyOut  bool
	)

	cmd := &cobra.Command{
		Use:   "store SITE USERNAME",
		Short: "Store a password for a site",
		Long: `Stores a credential. A site may hold any number of credentials;
storing the same username twice keeps both.

Examples:
  # Enter the password interactively
  securesafe store example.com alice

  # Generate one using the configured generator settings
  securesafe store example.com alice --generate --copy`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, username := args[0], args[1]

			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var password string
			if generate {
				g := a.cfg.Generator
				password, err = s.GeneratePassword(g.Length, g.UseSymbols(), g.UseNumbers())
				if err != nil {
					return err
				}
			} else {
				password, err = a.readSecret(cmd, fmt.Sprintf("Password for %s at %s: ", username, site))
				if err != nil {
					return err
				}
			}

			if err := s.StorePassword(site, username, password); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s at %s\n", username, site)
			if strength := security.Strength(password); strength == security.PasswordWeak {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: password strength is %s; consider 14 or more characters\n", strength)
			}
			if generate {
				a.emitSecret(cmd, password, copyOut)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "Generate the password instead of prompting")
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "Copy the generated password to the clipboard instead of printing it")
	return cmd
}

// emitSecret prints text or, with copyOut, places it on the clipboard.
// A clipboard failure falls back to printing.
func (a *app) emitSecret(cmd *cobra.Command, text string, copyOut bool) {
	if copyOut {
		if err := a.copyText(text); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Password copied to clipboard")
			return
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
}
