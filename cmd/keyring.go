package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/keyring"
)

func newKeyringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage vault passwords stored in the OS keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <vault>",
			Short: "Verify and save a vault's password to the keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return keyringSave(a, args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <vault>",
			Short: "Remove a vault's password from the keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := keyring.DeletePassword(args[0]); err != nil {
					if errors.Is(err, keyring.ErrNotFound) {
						fmt.Fprintln(a.stdout, "No password stored in keyring")
						return nil
					}
					return err
				}
				a.success("Password removed from keyring")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status <vault>",
			Short: "Show whether a vault's password is in the keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if keyring.HasPassword(args[0]) {
					fmt.Fprintln(a.stdout, "Password: stored in keyring")
				} else {
					fmt.Fprintln(a.stdout, "Password: not stored")
				}
				return nil
			},
		},
	)
	return cmd
}

// keyringSave verifies the password against the vault before saving it
func keyringSave(a *app, name string) error {
	reg, err := a.open()
	if err != nil {
		return err
	}

	var password string
	if pw := a.getenv(EnvPassword); pw != "" {
		password = pw
	} else {
		b, err := a.readPassword(fmt.Sprintf("Password for vault %q: ", name))
		if err != nil {
			return err
		}
		password = string(b)
	}

	if _, err := reg.Authenticate(name, password); err != nil {
		return err
	}
	defer reg.Logout()

	if err := keyring.SavePassword(name, password); err != nil {
		return err
	}
	a.success("Password saved to keyring")
	return nil
}
