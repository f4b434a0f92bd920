package main

import (
	"errors"
	"os"

	"github.com/forest6511/securesafe/pkg/crypto"
	"github.com/forest6511/securesafe/pkg/vault"
)

const msgAuthFailed = "wrong master password or corrupted vault"

// userMessage turns an error into the text shown to the user. Wrong
// passwords and damaged records share one message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, crypto.ErrAuthentication), errors.Is(err, vault.ErrCorrupted),
		errors.Is(err, vault.ErrKeyUnverified):
		return msgAuthFailed
	case errors.Is(err, vault.ErrSiteCorrupted):
		return "this site failed to decrypt and cannot be modified"
	case errors.Is(err, vault.ErrUnsupportedVersion):
		return "vault was written by a newer version of securesafe"
	case errors.Is(err, vault.ErrInvalidFormat):
		return "vault file is not a valid securesafe vault"
	case errors.Is(err, vault.ErrInsufficientDisk):
		return "not enough disk space to save the vault"
	case errors.Is(err, os.ErrPermission):
		return "permission denied: " + err.Error()
	default:
		return err.Error()
	}
}
