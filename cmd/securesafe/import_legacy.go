package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportLegacyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy FILE",
		Short: "Import credentials from an old passwords.json",
		Long: `Imports every credential from a passwords.json written by earlier
SecureSafe releases into the current vault. You are asked for the old
master password first, then for the vault's. Nothing is imported if any
legacy entry fails to decrypt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := checkImportPath(args[0])
			if err != nil {
				return err
			}

			legacyPassword, err := a.readSecret(cmd, "Enter legacy master password: ")
			if err != nil {
				return err
			}

			s, err := a.openSafe(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ImportLegacy(path, legacyPassword)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d credential(s) from %s\n", n, path)
			return nil
		},
	}
}
