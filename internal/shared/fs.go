package shared

// Default filesystem layout. Every path is overridable through
// configuration.
const (
	// DefaultInstallRoot holds the immutable installed-package tree:
	// <root>/<derivation>/<name>/<version>/<release>/...
	DefaultInstallRoot = "/opt/pkgagent/pkgs"

	// DefaultServiceRoot holds the mutable per-service trees:
	// <root>/<name>/{config,hooks,toml,data,var,run,config.toml}
	DefaultServiceRoot = "/opt/pkgagent/svc"

	// DefaultCacheDir receives fetched package archives.
	DefaultCacheDir = "/opt/pkgagent/cache/pkgs"

	// DefaultGPGHome is the keyring directory handed to the external
	// decrypt/verify collaborator.
	DefaultGPGHome = "/opt/pkgagent/cache/gpg"
)

// Default ownership applied to the writable service subdirectories.
const (
	DefaultSvcUser  = "pkgagent"
	DefaultSvcGroup = "pkgagent"
)
