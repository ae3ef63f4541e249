package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/illarion/sentinel/internal/crypto"
	"github.com/illarion/sentinel/internal/keyring"
	"github.com/illarion/sentinel/internal/vault"
)

func newVaultCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Create, delete and list vaults",
	}
	cmd.AddCommand(newVaultCreateCmd(a), newVaultDeleteCmd(a), newVaultLsCmd(a))
	return cmd
}

func newVaultCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new vault",
		Long: `Creates an empty vault protected by a master password.
Names must be unique ignoring case.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.open()
			if err != nil {
				return err
			}
			if err := vault.ValidateName(args[0]); err != nil {
				return err
			}

			password, err := a.newPassword()
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			if _, err := reg.Create(args[0], string(password)); err != nil {
				return err
			}
			a.success("Vault %q created", args[0])
			return nil
		},
	}
}

func newVaultDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a vault and all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return a.withVault(name, func(reg *vault.Registry, _ *vault.Vault) error {
				if err := reg.Delete(name); err != nil {
					return err
				}
				if a.cfg.Keyring && keyring.HasPassword(name) {
					if err := keyring.DeletePassword(name); err != nil {
						a.log.Warn("failed to remove keyring password", zap.String("vault", name), zap.Error(err))
					}
				}
				a.success("Vault %q removed", name)
				return nil
			})
		},
	}
}

func newVaultLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List vaults and their entry counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.open()
			if err != nil {
				return err
			}
			if reg.IsEmpty() {
				a.notice("No vaults. Create one with 'sentinel vault create <name>'")
				return nil
			}
			renderVaults(a.stdout, reg.Vaults())
			return nil
		},
	}
}
