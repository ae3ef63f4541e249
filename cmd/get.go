package cmd

import (
	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/vault"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <vault> <username>",
		Short: "Show the first entry whose username contains the text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				e, err := v.GetEntry(args[1])
				if err != nil {
					return err
				}
				renderEntries(a.stdout, []vault.Entry{e})
				return nil
			})
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <vault> <term>",
		Short: "List entries whose username contains the term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				entries := v.FindEntries(args[1])
				if len(entries) == 0 {
					a.notice("No entries found with that username")
					return nil
				}
				renderEntries(a.stdout, entries)
				return nil
			})
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	var desc bool

	cmd := &cobra.Command{
		Use:   "ls <vault>",
		Short: "List a vault's entries sorted by timestamp",
		Long: `Lists every entry, oldest first (or newest first with --desc). The sort
is applied to the vault itself, and the new order is written back to disk
when the command logs out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order := vault.Ascending
			if desc {
				order = vault.Descending
			}
			return a.withVault(args[0], func(_ *vault.Registry, v *vault.Vault) error {
				entries := v.DisplayEntries(order)
				if len(entries) == 0 {
					a.notice("No entries")
					return nil
				}
				renderEntries(a.stdout, entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&desc, "desc", false, "newest first")
	return cmd
}
