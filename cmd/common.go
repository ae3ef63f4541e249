package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/illarion/sentinel/internal/config"
	"github.com/illarion/sentinel/internal/crypto"
	"github.com/illarion/sentinel/internal/keyring"
	"github.com/illarion/sentinel/internal/passgen"
	"github.com/illarion/sentinel/internal/vault"
)

// EnvPassword overrides the master password prompt
const EnvPassword = "SENTINEL_PASSWORD"

var errPasswordMismatch = errors.New("passwords do not match")

// HandleError prints err with any hints and returns the exit code
func HandleError(w io.Writer, err error) int {
	switch {
	case errors.Is(err, vault.ErrAuthentication):
		fmt.Fprintf(w, "Error: wrong password\n")
	case errors.Is(err, vault.ErrNotFound):
		fmt.Fprintf(w, "Error: %s\n", err)
		err = errors.WithHint(err, "Use 'sentinel vault ls' to list vaults or 'sentinel ls <vault>' to list entries")
	case errors.Is(err, vault.ErrDuplicateName):
		fmt.Fprintf(w, "Error: %s\n", err)
		err = errors.WithHint(err, "Vault names are compared ignoring case")
	case errors.Is(err, vault.ErrDuplicateEntry):
		fmt.Fprintf(w, "Error: %s\n", err)
		err = errors.WithHint(err, "Use 'sentinel edit' to change an existing entry")
	case errors.Is(err, vault.ErrInvalidName):
		fmt.Fprintf(w, "Error: %s\n", err)
		err = errors.WithHint(err, "Vault names must be plain file names without commas")
	case errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintf(w, "Error: %s\n", err)
		err = errors.WithHint(err, "Check flags, SENTINEL_* variables and the config.yaml in the storage directory")
	default:
		fmt.Fprintf(w, "Error: %s\n", err)
	}

	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintln(w, hint)
	}
	return 1
}

// readTerminalPassword reads a line from the terminal without echoing
func (a *app) readTerminalPassword(prompt string) ([]byte, error) {
	fmt.Fprint(a.stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.stderr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password")
	}
	return password, nil
}

// readPasswordConfirm reads a password twice and ensures they match
func (a *app) readPasswordConfirm(prompt string) ([]byte, error) {
	password1, err := a.readPassword(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := a.readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, errPasswordMismatch
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// newPassword returns the master password for a new vault: the environment
// override, or a confirmed prompt
func (a *app) newPassword() ([]byte, error) {
	if pw := a.getenv(EnvPassword); pw != "" {
		return []byte(pw), nil
	}
	return a.readPasswordConfirm("New vault password: ")
}

// authenticate logs into the named vault. The password comes from the
// environment, then the keyring (when useKeyring and enabled), then a prompt.
// A keyring password that no longer verifies falls through to the prompt.
func (a *app) authenticate(reg *vault.Registry, name string, useKeyring bool) (*vault.Vault, error) {
	if reg.Lookup(name) == nil {
		return reg.Authenticate(name, "")
	}

	if pw := a.getenv(EnvPassword); pw != "" {
		return reg.Authenticate(name, pw)
	}

	if useKeyring && a.cfg.Keyring {
		if pw, err := keyring.GetPassword(name); err == nil {
			v, err := reg.Authenticate(name, pw)
			if err == nil {
				return v, nil
			}
			if !errors.Is(err, vault.ErrAuthentication) {
				return nil, err
			}
			a.log.Warn("keyring password rejected", zap.String("vault", name))
		}
	}

	pw, err := a.readPassword(fmt.Sprintf("Password for vault %q: ", name))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(pw)
	return reg.Authenticate(name, string(pw))
}

// withVault authenticates into name, runs fn and logs out
func (a *app) withVault(name string, fn func(reg *vault.Registry, v *vault.Vault) error) error {
	reg, err := a.open()
	if err != nil {
		return err
	}
	v, err := a.authenticate(reg, name, true)
	if err != nil {
		return err
	}
	defer reg.Logout()
	return fn(reg, v)
}

// readSecret returns a generated secret when length is positive, otherwise
// prompts for one
func (a *app) readSecret(length int, allowCommas bool) (secret string, generated bool, err error) {
	if length != 0 {
		var opts []passgen.Option
		if !allowCommas {
			opts = append(opts, passgen.WithoutCommas())
		}
		s, err := passgen.Generate(length, opts...)
		return s, true, err
	}

	pw, err := a.readPassword("Secret: ")
	if err != nil {
		return "", false, err
	}
	defer crypto.ClearBytes(pw)
	return string(pw), false, nil
}

// validateField rejects values that would split a storage row
func validateField(field, value string) error {
	if strings.ContainsAny(value, ",\r\n") {
		return errors.WithHint(
			errors.Newf("%s must not contain commas or line breaks", field),
			"Entries are stored one per line with comma-separated fields")
	}
	return nil
}

func (a *app) success(format string, args ...any) {
	fmt.Fprintln(a.stdout, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}
