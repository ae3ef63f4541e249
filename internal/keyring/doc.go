// Package keyring remembers vault master passwords in the OS keyring
// (macOS Keychain, Secret Service, Windows Credential Manager), one account
// per vault name under the "sentinel" service.
package keyring
