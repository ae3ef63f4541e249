package keyring

import (
	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"
)

const serviceName = "sentinel"

// ErrNotFound is returned when no password is stored for a vault
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a vault master password in the OS keyring
func SavePassword(vault string, password string) error {
	if err := keyring.Set(serviceName, vault, password); err != nil {
		return errors.Wrapf(err, "failed to save password for vault %q", vault)
	}
	return nil
}

// GetPassword retrieves a vault master password from the OS keyring
func GetPassword(vault string) (string, error) {
	pw, err := keyring.Get(serviceName, vault)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read password for vault %q", vault)
	}
	return pw, nil
}

// DeletePassword removes a vault master password from the OS keyring
func DeletePassword(vault string) error {
	if err := keyring.Delete(serviceName, vault); err != nil {
		return errors.Wrapf(err, "failed to delete password for vault %q", vault)
	}
	return nil
}

// HasPassword checks if a password is stored for the vault
func HasPassword(vault string) bool {
	_, err := keyring.Get(serviceName, vault)
	return err == nil
}
