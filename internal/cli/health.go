package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkgagent/internal/app"
	"pkgagent/internal/types"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health <derivation/name | derivation/name/version/release>",
		Short: "Run the health check hook and report the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd, args[0])
		},
	}
}

func runHealth(cmd *cobra.Command, ident string) error {
	svc := serviceFromConfig()
	pkg, err := resolveIdent(svc, ident)
	if err != nil {
		return err
	}
	cfg := app.NewServiceConfig(pkg, svc.InstallRoot, svc.ServiceRoot)
	if err := cfg.Load(cmd.Context()); err != nil {
		return err
	}
	result, err := svc.Lifecycle(pkg).HealthCheck(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.Status)
	if result.Output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Output)
	}
	if result.Status == types.HealthCritical || result.Status == types.HealthUnknown {
		cmd.SilenceUsage = true
		return fmt.Errorf("health check reported %s", result.Status)
	}
	return nil
}
