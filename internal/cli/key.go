package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgagent/internal/adapters"
)

func newKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage trusted package signing keys",
	}
	cmd.AddCommand(newKeyImportCommand())
	return cmd
}

func newKeyImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a public key into the trusted keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyring := adapters.NewKeyringAdapter(viper.GetString("gpg_home"))
			identities, err := keyring.ImportKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, id := range identities {
				log.Info().Str("identity", id).Msg("key imported")
			}
			return nil
		},
	}
}
