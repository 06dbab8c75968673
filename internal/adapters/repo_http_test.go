package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgagent/internal/types"
)

func repoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pkgs/chef/redis/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"derivation": "chef",
			"name": "redis",
			"version": "3.0.2",
			"release": "20150521131400",
			"deps": ["chef/openssl/1.0.2/20150521131300", "garbage"]
		}`))
	})
	mux.HandleFunc("/pkgs/chef/redis/3.0.1/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"derivation": "chef",
			"name": "redis",
			"version": "3.0.1",
			"release": "20150521131347"
		}`))
	})
	mux.HandleFunc("/pkgs/chef/redis/3.0.2/20150521131400/download", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("archive-bytes"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// ---------------------------------------------------------------------------
// ShowLatest
// ---------------------------------------------------------------------------

func TestRepoHTTPShowLatest(t *testing.T) {
	server := repoServer(t)
	repo := NewRepoHTTPAdapter(server.URL, 5)

	pkg, err := repo.ShowLatest(context.Background(), "chef", "redis", "")
	require.NoError(t, err)
	assert.Equal(t, "chef/redis/3.0.2/20150521131400", pkg.String())
	require.Len(t, pkg.Deps, 1, "malformed dep idents are skipped")
	assert.Equal(t, "openssl", pkg.Deps[0].Name)
}

func TestRepoHTTPShowLatestPinnedVersion(t *testing.T) {
	server := repoServer(t)
	repo := NewRepoHTTPAdapter(server.URL, 5)

	pkg, err := repo.ShowLatest(context.Background(), "chef", "redis", "3.0.1")
	require.NoError(t, err)
	assert.Equal(t, "3.0.1", pkg.Version)
}

func TestRepoHTTPShowLatestNotFound(t *testing.T) {
	server := repoServer(t)
	repo := NewRepoHTTPAdapter(server.URL, 5)

	_, err := repo.ShowLatest(context.Background(), "chef", "postgres", "")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestRepoHTTPShowLatestEmptyEndpoint(t *testing.T) {
	repo := NewRepoHTTPAdapter("", 5)
	_, err := repo.ShowLatest(context.Background(), "chef", "redis", "")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

// ---------------------------------------------------------------------------
// FetchExact
// ---------------------------------------------------------------------------

func TestRepoHTTPFetchExact(t *testing.T) {
	server := repoServer(t)
	repo := NewRepoHTTPAdapter(server.URL, 5)
	destDir := t.TempDir()
	pkg := types.NewPackage("chef", "redis", "3.0.2", "20150521131400")

	path, err := repo.FetchExact(context.Background(), pkg, destDir)
	require.NoError(t, err)
	assert.Equal(t, pkg.CacheFile(destDir), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(content))
}

func TestRepoHTTPFetchExactNotFound(t *testing.T) {
	server := repoServer(t)
	repo := NewRepoHTTPAdapter(server.URL, 5)
	pkg := types.NewPackage("chef", "redis", "9.9.9", "20150521131400")

	_, err := repo.FetchExact(context.Background(), pkg, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
