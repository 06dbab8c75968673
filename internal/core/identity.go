package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgagent/internal/types"
)

// ParseIdent parses an identity string of the form
// "derivation/name/version/release" into a Package. Each segment is
// whitespace-trimmed and must be non-empty.
func ParseIdent(ident string) (types.Package, error) {
	segments := strings.Split(ident, "/")
	if len(segments) != 4 {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package ident: %q", ident))
	}
	pkg := types.NewPackage(
		strings.TrimSpace(segments[0]),
		strings.TrimSpace(segments[1]),
		strings.TrimSpace(segments[2]),
		strings.TrimSpace(segments[3]),
	)
	if pkg.Derivation == "" || pkg.Name == "" || pkg.Version == "" || pkg.Release == "" {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package ident: %q", ident))
	}
	return pkg, nil
}

// FromInstalledPath derives a Package from a filesystem path rooted
// under the package install root. The four coordinate segments are the
// first path elements after the root.
func FromInstalledPath(path string, installRoot string) (types.Package, error) {
	cleanRoot := filepath.Clean(installRoot)
	cleanPath := filepath.Clean(path)
	rel, err := filepath.Rel(cleanRoot, cleanPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot load package from path: %q", path))
	}
	segments := strings.Split(rel, string(filepath.Separator))
	if len(segments) < 4 {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot load package from path: %q", path))
	}
	return types.NewPackage(
		strings.TrimSpace(segments[0]),
		strings.TrimSpace(segments[1]),
		strings.TrimSpace(segments[2]),
		strings.TrimSpace(segments[3]),
	), nil
}

// Compare partially orders two packages. The second return value is
// false when the pair is incomparable; callers must handle that case
// explicitly rather than treating it as equality.
//
// Derivation is ignored: my redis and your redis compare the same.
// Different names never compare. At equal versions the release strings
// break the tie lexicographically, which is chronological order for
// the timestamp releases used by convention.
func Compare(a types.Package, b types.Package) (int, bool) {
	if a.Name != b.Name {
		return 0, false
	}
	ord, err := CompareVersions(a.Version, b.Version)
	if err != nil {
		log.Debug().Err(err).
			Str("a", a.Version).
			Str("b", b.Version).
			Msg("package versions not comparable")
		return 0, false
	}
	if ord != 0 {
		return ord, true
	}
	return strings.Compare(a.Release, b.Release), true
}
