package cmd

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/illarion/sentinel/internal/passgen"
)

func newGenerateCmd(a *app) *cobra.Command {
	var allowCommas bool

	cmd := &cobra.Command{
		Use:   "generate <length>",
		Short: "Print a random password",
		Long:  fmt.Sprintf("Prints a random password of %d to %d characters.", passgen.MinLength, passgen.MaxLength),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			length, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Wrapf(passgen.ErrInvalidLength, "%q is not a number", args[0])
			}

			var opts []passgen.Option
			if !allowCommas {
				opts = append(opts, passgen.WithoutCommas())
			}
			pw, err := passgen.Generate(length, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, pw)
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowCommas, "allow-commas", false, "include ',' in the character set")
	return cmd
}
