package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <derivation/name | derivation/name/version/release>",
		Short: "Report the supervisor status of a running service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := serviceFromConfig()
			pkg, err := resolveIdent(svc, args[0])
			if err != nil {
				return err
			}
			out, err := svc.Lifecycle(pkg).Status()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
