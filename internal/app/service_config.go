package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"pkgagent/internal/types"
)

// ServiceConfig is the merged configuration tree for one service: the
// package's shipped defaults overlaid by the per-service TOML
// fragments. It is the data hook and config templates render against.
type ServiceConfig struct {
	Pkg         types.Package
	InstallRoot string
	ServiceRoot string

	data map[string]any
}

func NewServiceConfig(pkg types.Package, installRoot string, serviceRoot string) *ServiceConfig {
	return &ServiceConfig{
		Pkg:         pkg,
		InstallRoot: installRoot,
		ServiceRoot: serviceRoot,
		data:        map[string]any{},
	}
}

// Load reads the package's config/default.toml (when shipped) and then
// every *.toml fragment under the service toml/ directory in
// lexicographic order, later fragments overriding earlier keys.
func (c *ServiceConfig) Load(ctx context.Context) error {
	assert.NotEmpty(ctx, c.Pkg.Name, "service config requires a package name")
	merged := map[string]any{}

	defaultPath := c.Pkg.JoinPath(c.InstallRoot, filepath.Join("config", "default.toml"))
	if err := mergeTOMLFile(defaultPath, merged, true); err != nil {
		return err
	}

	tomlDir := c.Pkg.SvcJoinPath(c.ServiceRoot, "toml")
	entries, err := os.ReadDir(tomlDir)
	if err == nil {
		var names []string
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if err := mergeTOMLFile(filepath.Join(tomlDir, name), merged, false); err != nil {
				return err
			}
		}
	}

	merged["pkg"] = map[string]any{
		"derivation": c.Pkg.Derivation,
		"name":       c.Pkg.Name,
		"version":    c.Pkg.Version,
		"release":    c.Pkg.Release,
		"ident":      c.Pkg.String(),
		"path":       c.Pkg.Path(c.InstallRoot),
		"svc_path":   c.Pkg.SvcPath(c.ServiceRoot),
	}
	c.data = merged
	return nil
}

// Data exposes the merged tree for template rendering.
func (c *ServiceConfig) Data() map[string]any {
	return c.data
}

// WriteSnapshot persists the merged tree as <svc>/config.toml, the
// last-rendered configuration the default health check reports.
func (c *ServiceConfig) WriteSnapshot() error {
	encoded, err := toml.Marshal(c.data)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode config snapshot").
			WithCause(err)
	}
	path := c.Pkg.SvcJoinPath(c.ServiceRoot, "config.toml")
	if err := os.WriteFile(path, encoded, 0o640); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write config snapshot").
			WithCause(err)
	}
	return nil
}

// LastConfig reads back the persisted config.toml snapshot.
func (c *ServiceConfig) LastConfig() (string, error) {
	content, err := os.ReadFile(c.Pkg.SvcJoinPath(c.ServiceRoot, "config.toml"))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no config snapshot for service: " + c.Pkg.Name).
			WithCause(err)
	}
	return string(content), nil
}

func mergeTOMLFile(path string, into map[string]any, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("config fragment not found: " + path).
			WithCause(err)
	}
	fragment := map[string]any{}
	if err := toml.Unmarshal(content, &fragment); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid config fragment: " + path).
			WithCause(err)
	}
	mergeTree(into, fragment)
	return nil
}

// mergeTree overlays src onto dst, descending into maps so that a
// fragment can override one leaf without clobbering its siblings.
func mergeTree(dst map[string]any, src map[string]any) {
	for key, value := range src {
		srcMap, srcOK := value.(map[string]any)
		dstMap, dstOK := dst[key].(map[string]any)
		if srcOK && dstOK {
			mergeTree(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}
