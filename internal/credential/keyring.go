// Package credential resolves the IMAP mailbox password from the OS
// keyring, with environment and config fallbacks so headless deploys
// (cron, containers) work without a keyring backend.
package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "leadimport"

// envPassword is consulted before the config file value when the
// keyring has no entry.
const envPassword = "LEADIMPORT_IMAP_PASSWORD"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/leadimport/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("leadimport-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// IMAPPassword resolves the mailbox password for username. Resolution
// order: keyring entry "imap:<username>", then the environment, then
// the config file value passed as fallback. An empty result is an
// error because the connector cannot authenticate without it.
func IMAPPassword(username, fallback string) (string, error) {
	if ring, err := openKeyring(); err == nil {
		if item, err := ring.Get("imap:" + username); err == nil && len(item.Data) > 0 {
			return string(item.Data), nil
		}
	}

	if v := os.Getenv(envPassword); v != "" {
		return v, nil
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("no IMAP password found for %q (keyring, %s, config all empty)", username, envPassword)
}

// SetIMAPPassword stores the mailbox password for username in the
// system keyring.
func SetIMAPPassword(username, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  "imap:" + username,
		Data: []byte(password),
	})
	if err != nil {
		return fmt.Errorf("storing IMAP password for %q: %w", username, err)
	}

	return nil
}

// DeleteIMAPPassword removes the stored mailbox password for username.
func DeleteIMAPPassword(username string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove("imap:" + username); err != nil {
		return fmt.Errorf("deleting IMAP password for %q: %w", username, err)
	}

	return nil
}
