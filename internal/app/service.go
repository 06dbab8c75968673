package app

import (
	"pkgagent/internal/adapters"
	"pkgagent/internal/ports"
	"pkgagent/internal/shared"
	"pkgagent/internal/types"
)

// Service bundles the collaborator ports and filesystem roots the
// lifecycle operations run against.
type Service struct {
	Cipher   ports.ArchiveCipher
	Repo     ports.Repo
	Template ports.Template

	InstallRoot string
	ServiceRoot string
	CacheDir    string
	SvcUser     string
	SvcGroup    string
}

// Config carries the configurable knobs from the CLI layer.
type Config struct {
	InstallRoot string
	ServiceRoot string
	CacheDir    string
	GPGHome     string
	RepoURL     string
	RepoDir     string
	RepoTimeout int
	SvcUser     string
	SvcGroup    string
}

// NewService wires the default adapters. A repository directory takes
// precedence over a URL; with neither the repo port stays nil and
// update-related operations are unavailable.
func NewService(cfg Config) Service {
	svc := Service{
		Cipher:      adapters.NewGPGArchiveAdapter(cfg.GPGHome),
		Template:    adapters.NewMustacheTemplateAdapter(),
		InstallRoot: cfg.InstallRoot,
		ServiceRoot: cfg.ServiceRoot,
		CacheDir:    cfg.CacheDir,
		SvcUser:     cfg.SvcUser,
		SvcGroup:    cfg.SvcGroup,
	}
	if svc.InstallRoot == "" {
		svc.InstallRoot = shared.DefaultInstallRoot
	}
	if svc.ServiceRoot == "" {
		svc.ServiceRoot = shared.DefaultServiceRoot
	}
	if svc.CacheDir == "" {
		svc.CacheDir = shared.DefaultCacheDir
	}
	switch {
	case cfg.RepoDir != "":
		svc.Repo = adapters.NewRepoFileAdapter(cfg.RepoDir)
	case cfg.RepoURL != "":
		svc.Repo = adapters.NewRepoHTTPAdapter(cfg.RepoURL, cfg.RepoTimeout)
	}
	return svc
}

// Lifecycle builds the controller for one package using the service's
// roots and template collaborator.
func (s Service) Lifecycle(pkg types.Package) *Lifecycle {
	return &Lifecycle{
		Pkg:         pkg,
		InstallRoot: s.InstallRoot,
		ServiceRoot: s.ServiceRoot,
		Template:    s.Template,
		SvcUser:     s.SvcUser,
		SvcGroup:    s.SvcGroup,
	}
}
