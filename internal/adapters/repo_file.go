package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pkgagent/internal/core"
	"pkgagent/internal/ports"
	"pkgagent/internal/types"
)

// RepoFileAdapter serves the repository operations from a local
// directory: an index.yaml listing packages plus the archive files it
// names. Used for air-gapped installs and tests.
type RepoFileAdapter struct {
	Dir    string
	cached repoIndexFile
	loaded bool
}

type repoIndexFile struct {
	Packages []repoIndexEntry `yaml:"packages"`
}

type repoIndexEntry struct {
	Ident   string `yaml:"ident"`
	Archive string `yaml:"archive"`
}

func NewRepoFileAdapter(dir string) *RepoFileAdapter {
	return &RepoFileAdapter{Dir: dir}
}

func (a *RepoFileAdapter) ShowLatest(_ context.Context, derivation string, name string, version string) (types.Package, error) {
	index, err := a.load()
	if err != nil {
		return types.Package{}, err
	}
	var winner *types.Package
	for _, entry := range index.Packages {
		pkg, err := core.ParseIdent(entry.Ident)
		if err != nil {
			continue
		}
		if pkg.Derivation != derivation || pkg.Name != name {
			continue
		}
		if version != "" && pkg.Version != version {
			continue
		}
		if winner == nil {
			picked := pkg
			winner = &picked
			continue
		}
		if ord, ok := core.Compare(*winner, pkg); ok && ord < 0 {
			picked := pkg
			winner = &picked
		}
	}
	if winner == nil {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not found: %s/%s", derivation, name))
	}
	return *winner, nil
}

func (a *RepoFileAdapter) FetchExact(_ context.Context, pkg types.Package, destDir string) (string, error) {
	index, err := a.load()
	if err != nil {
		return "", err
	}
	for _, entry := range index.Packages {
		candidate, err := core.ParseIdent(entry.Ident)
		if err != nil || !candidate.Equal(pkg) {
			continue
		}
		if err := os.MkdirAll(destDir, 0o750); err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create cache directory").
				WithCause(err)
		}
		destPath := pkg.CacheFile(destDir)
		data, err := os.ReadFile(filepath.Join(a.Dir, entry.Archive))
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("archive file missing from repository dir").
				WithCause(err)
		}
		if err := os.WriteFile(destPath, data, 0o640); err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write archive file").
				WithCause(err)
		}
		return destPath, nil
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("package not found: %s", pkg))
}

func (a *RepoFileAdapter) load() (repoIndexFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	path := filepath.Join(a.Dir, "index.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return repoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repository index not found: " + path).
			WithCause(err)
	}
	var index repoIndexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return repoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid repository index format").
			WithCause(err)
	}
	a.cached = index
	a.loaded = true
	return index, nil
}

// parseDepIdent parses a dependency identity string, trimming padding.
func parseDepIdent(ident string) (types.Package, error) {
	return core.ParseIdent(strings.TrimSpace(ident))
}

var _ ports.Repo = (*RepoFileAdapter)(nil)
