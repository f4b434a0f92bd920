package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	errPasswordMismatch    = errors.New("passwords do not match")
	errEmptyMasterPassword = errors.New("master password must not be empty")
)

// promptSecret reads a secret without echo when stdin is a terminal and
// falls back to a plain line for piped input.
func (a *app) promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	return readLine(in)
}

func isTerminal(fd int) bool {
	return term.IsTerminal(fd)
}
