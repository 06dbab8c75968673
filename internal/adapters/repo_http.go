package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgagent/internal/ports"
	"pkgagent/internal/shared"
	"pkgagent/internal/types"
)

const defaultRepoTimeout = 60 * time.Second

// RepoHTTPAdapter talks to a remote package repository over HTTP. The
// repository exposes two operations: a latest-package lookup and an
// exact-archive download.
type RepoHTTPAdapter struct {
	Endpoint string
	Timeout  time.Duration
	client   *http.Client
}

// repoPackage is the repository's JSON shape for a package.
type repoPackage struct {
	Derivation string   `json:"derivation"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Release    string   `json:"release"`
	Deps       []string `json:"deps,omitempty"`
}

func NewRepoHTTPAdapter(endpoint string, timeoutSec int) RepoHTTPAdapter {
	timeout := defaultRepoTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	return RepoHTTPAdapter{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a RepoHTTPAdapter) ShowLatest(ctx context.Context, derivation string, name string, version string) (types.Package, error) {
	if strings.TrimSpace(a.Endpoint) == "" {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository endpoint is empty")
	}
	target := fmt.Sprintf("%s/pkgs/%s/%s", a.Endpoint, url.PathEscape(derivation), url.PathEscape(name))
	if strings.TrimSpace(version) != "" {
		target = fmt.Sprintf("%s/%s", target, url.PathEscape(version))
	}
	target += "/latest"

	body, err := a.get(ctx, target)
	if err != nil {
		return types.Package{}, err
	}
	defer body.Close()

	var remote repoPackage
	if err := json.NewDecoder(body).Decode(&remote); err != nil {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("invalid repository response").
			WithCause(err)
	}
	pkg := types.NewPackage(remote.Derivation, remote.Name, remote.Version, remote.Release)
	for _, dep := range remote.Deps {
		parsed, err := parseDepIdent(dep)
		if err != nil {
			continue
		}
		pkg.AddDep(parsed)
	}
	return pkg, nil
}

func (a RepoHTTPAdapter) FetchExact(ctx context.Context, pkg types.Package, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory").
			WithCause(err)
	}
	target := fmt.Sprintf("%s/pkgs/%s/%s/%s/%s/download",
		a.Endpoint,
		url.PathEscape(pkg.Derivation),
		url.PathEscape(pkg.Name),
		url.PathEscape(pkg.Version),
		url.PathEscape(pkg.Release))

	body, err := a.get(ctx, target)
	if err != nil {
		return "", err
	}
	defer body.Close()

	destPath := pkg.CacheFile(destDir)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create archive file").
			WithCause(err)
	}
	defer dest.Close()
	if _, err := io.Copy(dest, body); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to download archive").
			WithCause(err)
	}
	return destPath, nil
}

func (a RepoHTTPAdapter) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid repository url").
			WithCause(err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("repository request failed").
			WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		code := errbuilder.CodeInternal
		if resp.StatusCode == http.StatusNotFound {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg("repository request failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	return resp.Body, nil
}

var _ ports.Repo = RepoHTTPAdapter{}
