package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forest6511/securesafe/internal/config"
	"github.com/forest6511/securesafe/internal/logger"
	"github.com/forest6511/securesafe/pkg/safe"
	"github.com/forest6511/securesafe/pkg/vault"
)

// app holds the state shared by every command of one invocation.
type app struct {
	vaultPath   string
	configPath  string
	logLevel    string
	skipCorrupt bool

	cfg *config.Config
	log *logger.Logger

	// readSecret prompts for a value without echo.
	readSecret func(cmd *cobra.Command, prompt string) (string, error)
	// copyText places text on the system clipboard.
	copyText func(text string) error
}

func newApp() *app {
	a := &app{
		log:      logger.Nop(),
		copyText: copyToClipboard,
	}
	a.readSecret = a.promptSecret
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "securesafe",
		Short: "securesafe is a local, encrypted password vault",
		Long: `A local password vault. Every site is sealed separately with
AES-256-GCM under a key derived from your master password with Argon2id.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// PersistentPreRunE runs before every subcommand and resolves
		// configuration and logging.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.vaultPath, "vault", "", "Vault file (default ~/.securesafe/vault.json)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.securesafe/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.skipCorrupt, "skip-corrupt", false, "Continue when some sites fail to decrypt")

	root.AddCommand(
		newStoreCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newSitesCmd(a),
		newGenerateCmd(a),
		newImportCmd(a),
		newImportLegacyCmd(a),
		newAuditCmd(a),
		newCompletionCmd(),
	)
	return root
}

// setup merges configuration sources and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, &config.Config{
		VaultPath: a.vaultPath,
		LogLevel:  a.logLevel,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// openSafe prompts for the master password and opens the vault. A new vault
// asks for the password twice. Sites that fail to decrypt abort the command
// unless --skip-corrupt is set.
func (a *app) openSafe(cmd *cobra.Command) (*safe.Safe, error) {
	_, statErr := os.Stat(a.cfg.VaultPath)
	creating := errors.Is(statErr, os.ErrNotExist)

	password, err := a.readSecret(cmd, "Enter master password: ")
	if err != nil {
		return nil, err
	}
	if creating {
		confirm, err := a.readSecret(cmd, "Confirm master password: ")
		if err != nil {
			return nil, err
		}
		if password != confirm {
			return nil, errPasswordMismatch
		}
		if password == "" {
			return nil, errEmptyMasterPassword
		}
	}

	store, err := vault.Open(a.cfg.VaultPath, password,
		vault.WithKDFParams(a.cfg.KDFParams()),
		vault.WithLogger(a.log),
	)
	var cerr *vault.CorruptionError
	switch {
	case errors.As(err, &cerr):
		if !a.skipCorrupt || len(store.Sites()) == 0 {
			store.Close()
			return nil, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipping %d site(s) that failed to decrypt: %s\n",
			len(cerr.Sites), strings.Join(cerr.Sites, ", "))
	case err != nil:
		return nil, err
	}

	if creating {
		fmt.Fprintf(cmd.ErrOrStderr(), "Created new vault at %s\n", a.cfg.VaultPath)
	}
	return safe.New(store, safe.WithLogger(a.log)), nil
}

// readLine reads one line from r, trimming the line ending.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			b.WriteByte(buf[0])
		}
		if err == io.EOF {
			if b.Len() == 0 {
				return "", io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}
	return strings.TrimSuffix(b.String(), "\r"), nil
}
