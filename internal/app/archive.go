// Package app holds the lifecycle core: package archives, hooks, the
// per-service lifecycle controller, and the background updater.
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"pkgagent/internal/core"
	"pkgagent/internal/ports"
	"pkgagent/internal/shared"
	"pkgagent/internal/types"
)

// Archive is one signed package archive on disk. It holds no state
// beyond the path; every metadata read re-invokes the cipher
// collaborator.
type Archive struct {
	Path   string
	Cipher ports.ArchiveCipher
}

func NewArchive(path string, cipher ports.ArchiveCipher) Archive {
	return Archive{Path: path, Cipher: cipher}
}

// FileName is the archive's base file name, for display only.
func (a Archive) FileName() string {
	return filepath.Base(a.Path)
}

// ReadMetadata returns the raw content of one named metadata entry.
func (a Archive) ReadMetadata(ctx context.Context, file types.MetaFile) (string, error) {
	return a.Cipher.ReadEntry(ctx, a.Path, string(file))
}

// Package builds the Package encoded in the archive's IDENT entry, with
// Deps populated from DEPS when present.
func (a Archive) Package(ctx context.Context) (types.Package, error) {
	ident, err := a.ReadMetadata(ctx, types.MetaFileIdent)
	if err != nil {
		return types.Package{}, err
	}
	pkg, err := core.ParseIdent(strings.TrimSpace(ident))
	if err != nil {
		return types.Package{}, err
	}
	deps, err := a.Deps(ctx)
	if err != nil {
		return types.Package{}, err
	}
	for _, dep := range deps {
		pkg.AddDep(dep)
	}
	return pkg, nil
}

// Deps reads the DEPS entry, one identity per line. An absent entry
// yields nil deps; malformed individual lines are skipped so that one
// corrupt line cannot fail the whole archive read.
func (a Archive) Deps(ctx context.Context) ([]types.Package, error) {
	body, err := a.ReadMetadata(ctx, types.MetaFileDeps)
	if err != nil {
		if shared.IsMetaFileNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var deps []types.Package
	for _, line := range strings.Split(body, "\n") {
		dep, err := core.ParseIdent(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Verify checks the archive signature through the cipher collaborator.
func (a Archive) Verify(ctx context.Context) error {
	return a.Cipher.Verify(ctx, a.Path)
}

// Unpack extracts the archive onto the filesystem and re-derives the
// Package from the archive metadata.
func (a Archive) Unpack(ctx context.Context) (types.Package, error) {
	if err := a.Cipher.ExtractAll(ctx, a.Path); err != nil {
		return types.Package{}, err
	}
	pkg, err := a.Package(ctx)
	if err != nil {
		return types.Package{}, err
	}
	log.Debug().Str("archive", a.FileName()).Str("package", pkg.String()).Msg("archive unpacked")
	return pkg, nil
}
