package types

import (
	"fmt"
	"path/filepath"
)

// Package is the four-part coordinate of one installed or installable
// package. The tuple (Derivation, Name, Version, Release) identifies it
// uniquely. Deps is informational only: it is parsed and carried but
// never resolved.
type Package struct {
	Derivation string
	Name       string
	Version    string
	Release    string
	Deps       []Package
}

func NewPackage(derivation string, name string, version string, release string) Package {
	return Package{
		Derivation: derivation,
		Name:       name,
		Version:    version,
		Release:    release,
	}
}

// String renders the canonical identity form "derivation/name/version/release".
func (p Package) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", p.Derivation, p.Name, p.Version, p.Release)
}

// Equal reports whether all four coordinate fields match exactly.
// Deps plays no part in identity.
func (p Package) Equal(other Package) bool {
	return p.Derivation == other.Derivation &&
		p.Name == other.Name &&
		p.Version == other.Version &&
		p.Release == other.Release
}

// AddDep appends one dependency in archive order.
func (p *Package) AddDep(dep Package) {
	p.Deps = append(p.Deps, dep)
}

// Path is the immutable install location of this package under the
// given install root.
func (p Package) Path(installRoot string) string {
	return filepath.Join(installRoot, p.Derivation, p.Name, p.Version, p.Release)
}

// JoinPath joins a relative entry onto the install location.
func (p Package) JoinPath(installRoot string, join string) string {
	return filepath.Join(p.Path(installRoot), join)
}

// SvcPath is the mutable per-service directory for this package. The
// service tree is keyed by name only: a new release of the same package
// takes over the same service directory.
func (p Package) SvcPath(serviceRoot string) string {
	return filepath.Join(serviceRoot, p.Name)
}

// SvcJoinPath joins a relative entry onto the service directory.
func (p Package) SvcJoinPath(serviceRoot string, join string) string {
	return filepath.Join(p.SvcPath(serviceRoot), join)
}

// CacheFile is the local archive path a fetched copy of this package
// lands at.
func (p Package) CacheFile(cacheDir string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s-%s-%s-%s.bldr", p.Derivation, p.Name, p.Version, p.Release))
}
