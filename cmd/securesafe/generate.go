package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/pkg/generator"
	"github.com/forest6511/securesafe/pkg/safe"
)

const (
	minPasswordLength    = 1
	defaultPasswordCount = 1
	maxPasswordCount     = 100
	maxExcludeLength     = 256
)

// generateOptions mirrors the generate command flags.
type generateOptions struct {
	length    int
	count     int
	noSymbols bool
	noNumbers bool
	exclude   string
	copyOut   bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate secure random passwords",
		Long: `Generate cryptographically secure random passwords. Letters are
always included; digits and symbols unless disabled. Defaults come from the
generator section of the config file.

Examples:
  # Generate a password with the configured defaults
  securesafe generate

  # Generate a 32-character password without symbols
  securesafe generate -l 32 --no-symbols

  # Generate 5 passwords
  securesafe generate -n 5

  # Generate and copy to clipboard
  securesafe generate -c

  # Generate password excluding ambiguous characters
  securesafe generate --exclude "0O1lI"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.cfg.Generator
			if !cmd.Flags().Changed("length") {
				opts.length = g.Length
			}
			if !cmd.Flags().Changed("no-symbols") {
				opts.noSymbols = !g.UseSymbols()
			}
			if !cmd.Flags().Changed("no-numbers") {
				opts.noNumbers = !g.UseNumbers()
			}
			return a.executeGenerate(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.length, "length", "l", 0, "Password length (default from config)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", defaultPasswordCount, "Number of passwords to generate (1-100)")
	cmd.Flags().BoolVar(&opts.noSymbols, "no-symbols", false, "Exclude symbols")
	cmd.Flags().BoolVar(&opts.noNumbers, "no-numbers", false, "Exclude numbers")
	cmd.Flags().StringVar(&opts.exclude, "exclude", "", "Characters to exclude")
	cmd.Flags().BoolVarP(&opts.copyOut, "copy", "c", false, "Copy first password to clipboard (accessible to all processes)")
	return cmd
}

func (a *app) executeGenerate(cmd *cobra.Command, opts generateOptions) error {
	if err := validateGenerateOptions(opts); err != nil {
		return err
	}

	passwords := make([]string, opts.count)
	for i := range passwords {
		password, err := generateOne(opts)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		passwords[i] = password
	}

	if opts.copyOut {
		a.emitSecret(cmd, passwords[0], true)
		passwords = passwords[1:]
	}
	for _, password := range passwords {
		fmt.Fprintln(cmd.OutOrStdout(), password)
	}
	return nil
}

// generateOne uses the facade unless characters are excluded, which needs a
// custom pool.
func generateOne(opts generateOptions) (string, error) {
	if opts.exclude == "" {
		return safe.New(nil).GeneratePassword(opts.length, !opts.noSymbols, !opts.noNumbers)
	}

	charset := generator.RemoveChars(generator.Charset(!opts.noSymbols, !opts.noNumbers), opts.exclude)
	if charset == "" {
		return "", fmt.Errorf("character set is empty: adjust flags to include at least one character type")
	}
	return generator.GenerateFromCharset(charset, opts.length)
}

// validateGenerateOptions validates the generate command flags
func validateGenerateOptions(opts generateOptions) error {
	if opts.length < minPasswordLength {
		return fmt.Errorf("password length must be at least %d characters", minPasswordLength)
	}
	if opts.length > safe.MaxGeneratedLength {
		return fmt.Errorf("password length must be at most %d characters", safe.MaxGeneratedLength)
	}
	if opts.count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if opts.count > maxPasswordCount {
		return fmt.Errorf("count must be at most %d", maxPasswordCount)
	}
	if len(opts.exclude) > maxExcludeLength {
		return fmt.Errorf("exclude string must be at most %d characters", maxExcludeLength)
	}
	return nil
}
