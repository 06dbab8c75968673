package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pkgagent/internal/app"
)

func newInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install <archive>",
		Short: "Verify and unpack a package archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := serviceFromConfig()
			archive := app.NewArchive(args[0], svc.Cipher)
			if err := archive.Verify(cmd.Context()); err != nil {
				return err
			}
			pkg, err := archive.Unpack(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Str("package", pkg.String()).Str("archive", archive.FileName()).Msg("package installed")
			return nil
		},
	}
}
