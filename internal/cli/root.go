package cli

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkgagent/internal/app"
	"pkgagent/internal/shared"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "PKGAGENT"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "pkgagent",
		Short:   "Package lifecycle agent: install, run, and auto-update services",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().String("install-root", shared.DefaultInstallRoot, "Installed package tree root")
	cmd.PersistentFlags().String("service-root", shared.DefaultServiceRoot, "Service directory root")
	cmd.PersistentFlags().String("cache-dir", shared.DefaultCacheDir, "Package archive cache directory")
	cmd.PersistentFlags().String("gpg-home", shared.DefaultGPGHome, "GPG keyring home")
	cmd.PersistentFlags().String("url", "", "Package repository URL")
	cmd.PersistentFlags().String("repo-dir", "", "Local package repository directory")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("install_root", cmd.PersistentFlags().Lookup("install-root"))
	_ = viper.BindPFlag("service_root", cmd.PersistentFlags().Lookup("service-root"))
	_ = viper.BindPFlag("cache_dir", cmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("gpg_home", cmd.PersistentFlags().Lookup("gpg-home"))
	_ = viper.BindPFlag("repo_url", cmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("repo_dir", cmd.PersistentFlags().Lookup("repo-dir"))

	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newHealthCommand())
	cmd.AddCommand(newSignalCommand())
	cmd.AddCommand(newKeyCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetDefault("svc_user", shared.DefaultSvcUser)
	viper.SetDefault("svc_group", shared.DefaultSvcGroup)
	viper.SetDefault("repo_timeout", 60)

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("pkgagent")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/pkgagent")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// serviceFromConfig builds the app wiring from the resolved viper keys.
func serviceFromConfig() app.Service {
	return app.NewService(app.Config{
		InstallRoot: viper.GetString("install_root"),
		ServiceRoot: viper.GetString("service_root"),
		CacheDir:    viper.GetString("cache_dir"),
		GPGHome:     viper.GetString("gpg_home"),
		RepoURL:     viper.GetString("repo_url"),
		RepoDir:     viper.GetString("repo_dir"),
		RepoTimeout: viper.GetInt("repo_timeout"),
		SvcUser:     viper.GetString("svc_user"),
		SvcGroup:    viper.GetString("svc_group"),
	})
}

func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound:
		return 4
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}
