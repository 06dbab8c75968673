package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgagent/internal/types"
)

// Latest returns the newest installed package matching derivation and
// name (and version, when non-empty) under installRoot.
//
// Candidates fold under the partial order from Compare: the current
// winner is kept on Greater, Equal, and incomparable, and replaced only
// on Less. The incomparable arm keeps the winner on purpose: a
// candidate whose version does not parse must never displace one that
// does.
func Latest(installRoot string, derivation string, name string, version string) (types.Package, error) {
	candidates, err := packageList(installRoot)
	if err != nil {
		return types.Package{}, err
	}
	var winner *types.Package
	for _, candidate := range candidates {
		if candidate.Name != name || candidate.Derivation != derivation {
			continue
		}
		if version != "" && candidate.Version != version {
			continue
		}
		if winner == nil {
			picked := candidate
			winner = &picked
			continue
		}
		if ord, ok := Compare(*winner, candidate); ok && ord < 0 {
			picked := candidate
			winner = &picked
		}
	}
	if winner == nil {
		ident := fmt.Sprintf("%s/%s", derivation, name)
		if version != "" {
			ident = fmt.Sprintf("%s/%s", ident, version)
		}
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not found: %s", ident))
	}
	return *winner, nil
}

// packageList enumerates every package under the four-level
// derivation/name/version/release tree. A missing or non-directory
// root yields an empty list via the returned error.
func packageList(installRoot string) ([]types.Package, error) {
	info, err := os.Stat(installRoot)
	if err != nil || !info.IsDir() {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package install root missing: %s", installRoot)).
			WithCause(err)
	}
	var packages []types.Package
	derivations, err := readSubdirs(installRoot)
	if err != nil {
		return nil, err
	}
	for _, derivation := range derivations {
		names, err := readSubdirs(filepath.Join(installRoot, derivation))
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			versions, err := readSubdirs(filepath.Join(installRoot, derivation, name))
			if err != nil {
				return nil, err
			}
			for _, version := range versions {
				releases, err := readSubdirs(filepath.Join(installRoot, derivation, name, version))
				if err != nil {
					return nil, err
				}
				for _, release := range releases {
					packages = append(packages, types.NewPackage(derivation, name, version, release))
				}
			}
		}
	}
	return packages, nil
}

func readSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read package directory: %s", dir)).
			WithCause(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
