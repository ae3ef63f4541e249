package cmd

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [vault]",
		Short: "Show the audit journal",
		Long: `Shows recorded vault operations, optionally for one vault (exact name).
The journal never contains secrets or passwords, so no password is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openJournal()
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			events, err := j.Events(name)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				a.notice("No recorded events")
				return nil
			}
			renderEvents(a.stdout, events)
			return nil
		},
	}
}
