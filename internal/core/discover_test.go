package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgagent/internal/types"
	"pkgagent/tests/testutil"
)

func TestLatestPicksNewestVersion(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.0/20150521131347")
	testutil.InstallPackage(t, root, "chef/redis/3.0.2/20150521131347")
	testutil.InstallPackage(t, root, "chef/redis/3.0.1/20150521131347")

	pkg, err := Latest(root, "chef", "redis", "")
	require.NoError(t, err)
	assert.Equal(t, types.NewPackage("chef", "redis", "3.0.2", "20150521131347"), pkg)
}

func TestLatestReleaseBreaksTie(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.1/20150521131347")
	testutil.InstallPackage(t, root, "chef/redis/3.0.1/20150521131399")

	pkg, err := Latest(root, "chef", "redis", "")
	require.NoError(t, err)
	assert.Equal(t, "20150521131399", pkg.Release)
}

func TestLatestPinnedVersion(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.0/20150521131347")
	testutil.InstallPackage(t, root, "chef/redis/3.0.2/20150521131347")

	pkg, err := Latest(root, "chef", "redis", "3.0.0")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", pkg.Version)
}

func TestLatestFiltersDerivationAndName(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.0/20150521131347")
	testutil.InstallPackage(t, root, "acme/redis/9.9.9/20150521131347")
	testutil.InstallPackage(t, root, "chef/nginx/9.9.9/20150521131347")

	pkg, err := Latest(root, "chef", "redis", "")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", pkg.Version)
}

func TestLatestIncomparableKeepsWinner(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.0/20150521131347")
	testutil.InstallPackage(t, root, "chef/redis/garbage-version/20150521131347")

	pkg, err := Latest(root, "chef", "redis", "")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", pkg.Version)
}

func TestLatestNotFound(t *testing.T) {
	root := t.TempDir()
	testutil.InstallPackage(t, root, "chef/redis/3.0.0/20150521131347")

	_, err := Latest(root, "chef", "postgres", "")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestLatestMissingRoot(t *testing.T) {
	_, err := Latest("/does/not/exist", "chef", "redis", "")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
