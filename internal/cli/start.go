package cli

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pkgagent/internal/app"
	"pkgagent/internal/core"
	"pkgagent/internal/types"
)

type startOptions struct {
	Watch bool
}

func newStartCommand() *cobra.Command {
	opts := startOptions{}
	cmd := &cobra.Command{
		Use:   "start <derivation/name | derivation/name/version/release>",
		Short: "Provision and start a package as a supervised service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Poll the repository and promote newer releases")
	return cmd
}

func runStart(ctx context.Context, ident string, opts startOptions) error {
	svc := serviceFromConfig()
	pkg, err := resolveIdent(svc, ident)
	if err != nil {
		return err
	}
	if _, err := provision(ctx, svc, pkg); err != nil {
		return err
	}
	lifecycle := svc.Lifecycle(pkg)
	if _, err := lifecycle.Signal(types.SignalUp); err != nil {
		return err
	}
	log.Info().Str("package", pkg.String()).Msg("service started")

	if !opts.Watch {
		return nil
	}
	if svc.Repo == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("watch requires a repository url or directory")
	}
	return watch(ctx, svc, pkg)
}

// watch runs the updater loop, promoting each announced package until
// the process is interrupted.
func watch(ctx context.Context, svc app.Service, pkg types.Package) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shared := app.NewSharedPackage(pkg)
	updater := app.NewUpdater(svc.Repo, svc.Cipher, shared, svc.CacheDir)
	updater.Start(ctx)
	log.Info().Str("package", pkg.String()).Msg("watching for updates")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-updater.Events():
			if err := promote(ctx, svc, shared, event.Pkg); err != nil {
				log.Error().Err(err).Str("package", event.Pkg.String()).Msg("failed to promote update")
			}
			updater.Run()
		}
	}
}

// promote swaps the shared package to the announced release and drives
// the service onto it. The init hook is not re-run; an update is a
// reconfigure of an already-initialized service.
func promote(ctx context.Context, svc app.Service, shared *app.SharedPackage, pkg types.Package) error {
	log.Info().Str("package", pkg.String()).Msg("promoting updated package")
	lifecycle := svc.Lifecycle(pkg)
	if err := lifecycle.CreateSvcPath(); err != nil {
		return err
	}
	cfg := app.NewServiceConfig(pkg, svc.InstallRoot, svc.ServiceRoot)
	if err := cfg.Load(ctx); err != nil {
		return err
	}
	if err := cfg.WriteSnapshot(); err != nil {
		return err
	}
	if err := lifecycle.RenderConfigFiles(cfg); err != nil {
		return err
	}
	if err := lifecycle.CopyRun(cfg); err != nil {
		return err
	}
	shared.Set(pkg)
	return lifecycle.Reconfigure(cfg)
}

// provision prepares the service directory for pkg: directories,
// merged config snapshot, rendered config files, run link, init hook.
func provision(ctx context.Context, svc app.Service, pkg types.Package) (*app.ServiceConfig, error) {
	lifecycle := svc.Lifecycle(pkg)
	if err := lifecycle.CreateSvcPath(); err != nil {
		return nil, err
	}
	cfg := app.NewServiceConfig(pkg, svc.InstallRoot, svc.ServiceRoot)
	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	if err := cfg.WriteSnapshot(); err != nil {
		return nil, err
	}
	if err := lifecycle.RenderConfigFiles(cfg); err != nil {
		return nil, err
	}
	if err := lifecycle.CopyRun(cfg); err != nil {
		return nil, err
	}
	if err := lifecycle.Initialize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveIdent accepts either a full four-part identity or a
// derivation/name pair resolved to the newest installed release.
func resolveIdent(svc app.Service, ident string) (types.Package, error) {
	segments := strings.Split(ident, "/")
	switch len(segments) {
	case 4:
		return core.ParseIdent(ident)
	case 2:
		return core.Latest(svc.InstallRoot, strings.TrimSpace(segments[0]), strings.TrimSpace(segments[1]), "")
	case 3:
		return core.Latest(svc.InstallRoot, strings.TrimSpace(segments[0]), strings.TrimSpace(segments[1]), strings.TrimSpace(segments[2]))
	default:
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid package ident: " + ident)
	}
}
