package cmd

import (
	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/vault"
)

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <vault> <username>",
		Short: "Remove an entry from a vault",
		Long:  `Removes the entry whose username matches exactly (case-sensitive).`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				if err := v.DeleteEntry(args[1]); err != nil {
					return err
				}
				a.success("Entry for %s deleted", args[1])
				return nil
			})
		},
	}
}
