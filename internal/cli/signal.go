package cli

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"pkgagent/internal/types"
)

func newSignalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signal <verb> <derivation/name | derivation/name/version/release>",
		Short: "Send a supervisor verb to a running service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, ok := types.ParseSignal(args[0])
			if !ok {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("unknown signal verb: " + args[0])
			}
			svc := serviceFromConfig()
			pkg, err := resolveIdent(svc, args[1])
			if err != nil {
				return err
			}
			out, err := svc.Lifecycle(pkg).Signal(sig)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}
