package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/storage"
	"github.com/illarion/sentinel/internal/vault"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		generate    int
		allowCommas bool
	)

	cmd := &cobra.Command{
		Use:   "add <vault> <username>",
		Short: "Add an entry to a vault",
		Long: `Adds an entry for username. The secret is prompted for, or generated
with --generate. Usernames must not already exist in the vault (exact,
case-sensitive match).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[1]
			if err := validateField("username", username); err != nil {
				return err
			}

			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				secret, generated, err := a.readSecret(generate, allowCommas)
				if err != nil {
					return err
				}
				if err := validateField("secret", secret); err != nil {
					return err
				}

				if err := v.AddEntry(storage.NewEntry(username, secret)); err != nil {
					return err
				}
				a.success("Entry for %s added", username)
				if generated {
					fmt.Fprintf(a.stdout, "Generated secret: %s\n", secret)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&generate, "generate", "g", 0, "generate a random secret of this length")
	cmd.Flags().BoolVar(&allowCommas, "allow-commas", false, "allow commas in generated secrets")
	return cmd
}
