package main

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script for your shell",
		Long: `To load completions:

Bash:
  $ source <(securesafe completion bash)

  # To load for each session (Linux):
  $ securesafe completion bash > ~/.local/share/bash-completion/completions/securesafe

Zsh:
  $ securesafe completion zsh > ~/.zsh/completions/_securesafe
  # (create ~/.zsh/completions if needed, add to fpath in .zshrc)

Fish:
  $ securesafe completion fish > ~/.config/fish/completions/securesafe.fish

PowerShell:
  PS> securesafe completion powershell >> $PROFILE

Site names are never completed; that would need the master password.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion scripts need no configuration or vault.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
