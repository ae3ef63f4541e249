package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/vault"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		newUsername string
		newSecret   bool
		generate    int
		allowCommas bool
	)

	cmd := &cobra.Command{
		Use:   "edit <vault> <username>",
		Short: "Change an entry's username or secret",
		Long: `Edits the first entry whose username contains the given text, ignoring
case. The entry's timestamp is reset to now. Use --secret to be prompted for
a new secret or --generate to replace it with a random one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if newSecret && generate != 0 {
				return errors.New("--secret and --generate are mutually exclusive")
			}
			if err := validateField("username", newUsername); err != nil {
				return err
			}

			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				before, err := v.GetEntry(args[1])
				if err != nil {
					return err
				}

				updated := before
				if newUsername != "" {
					updated.Username = newUsername
				}

				generated := false
				if newSecret || generate != 0 {
					updated.Secret, generated, err = a.readSecret(generate, allowCommas)
					if err != nil {
						return err
					}
					if err := validateField("secret", updated.Secret); err != nil {
						return err
					}
				}

				after, err := v.EditEntry(args[1], updated)
				if err != nil {
					return err
				}

				a.success("Entry for %s updated", before.Username)
				fmt.Fprint(a.stdout, vault.DescribeEdit(before, after))
				if generated {
					fmt.Fprintf(a.stdout, "Generated secret: %s\n", after.Secret)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&newUsername, "username", "u", "", "new username")
	cmd.Flags().BoolVarP(&newSecret, "secret", "s", false, "prompt for a new secret")
	cmd.Flags().IntVarP(&generate, "generate", "g", 0, "generate a new random secret of this length")
	cmd.Flags().BoolVar(&allowCommas, "allow-commas", false, "allow commas in generated secrets")
	return cmd
}
