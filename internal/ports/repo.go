package ports

import (
	"context"

	"pkgagent/internal/types"
)

// Repo is the remote package repository collaborator. Both operations
// are network calls that may fail or time out; callers treat failures
// as transient.
type Repo interface {
	// ShowLatest returns the newest package the repository holds for
	// the given derivation and name, optionally pinned to a version.
	ShowLatest(ctx context.Context, derivation string, name string, version string) (types.Package, error)

	// FetchExact downloads the archive for exactly pkg into destDir and
	// returns the local archive path.
	FetchExact(ctx context.Context, pkg types.Package, destDir string) (string, error)
}
