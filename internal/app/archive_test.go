package app

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgagent/internal/shared"
	"pkgagent/internal/types"
)

// fakeCipher serves metadata entries from a map and records extraction
// calls. Entry absence is reported the same way real implementations
// report it.
type fakeCipher struct {
	entries    map[string]string
	verifyErr  error
	extractErr error
	extracted  []string
}

func (f *fakeCipher) ReadEntry(_ context.Context, _ string, entry string) (string, error) {
	content, ok := f.entries[entry]
	if !ok {
		return "", shared.MetaFileNotFound(entry)
	}
	return content, nil
}

func (f *fakeCipher) ExtractAll(_ context.Context, archivePath string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	f.extracted = append(f.extracted, archivePath)
	return nil
}

func (f *fakeCipher) Verify(_ context.Context, _ string) error {
	return f.verifyErr
}

// ---------------------------------------------------------------------------
// Archive metadata
// ---------------------------------------------------------------------------

func TestArchivePackage(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{
		"IDENT": "chef/redis/3.0.1/20150521131347\n",
		"DEPS":  "chef/openssl/1.0.2/20150521131300\nchef/glibc/2.21/20150521131100\n",
	}}
	archive := NewArchive("/tmp/chef-redis-3.0.1-20150521131347.bldr", cipher)

	pkg, err := archive.Package(context.Background())
	require.NoError(t, err)

	want := types.NewPackage("chef", "redis", "3.0.1", "20150521131347")
	want.AddDep(types.NewPackage("chef", "openssl", "1.0.2", "20150521131300"))
	want.AddDep(types.NewPackage("chef", "glibc", "2.21", "20150521131100"))
	if diff := cmp.Diff(want, pkg); diff != "" {
		t.Fatalf("unexpected package (-want +got):\n%s", diff)
	}
}

func TestArchivePackageNoDeps(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{
		"IDENT": "chef/redis/3.0.1/20150521131347",
	}}
	archive := NewArchive("/tmp/redis.bldr", cipher)

	pkg, err := archive.Package(context.Background())
	require.NoError(t, err)
	assert.Nil(t, pkg.Deps)
}

func TestArchiveDepsSkipsMalformedLines(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{
		"DEPS": "chef/openssl/1.0.2/20150521131300\ngarbage line\n\nchef/glibc/2.21/20150521131100",
	}}
	archive := NewArchive("/tmp/redis.bldr", cipher)

	deps, err := archive.Deps(context.Background())
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "openssl", deps[0].Name)
	assert.Equal(t, "glibc", deps[1].Name)
}

func TestArchivePackageBadIdent(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{
		"IDENT": "not-an-ident",
	}}
	archive := NewArchive("/tmp/redis.bldr", cipher)

	_, err := archive.Package(context.Background())
	require.Error(t, err)
}

func TestArchiveReadMetadataMissingEntry(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{}}
	archive := NewArchive("/tmp/redis.bldr", cipher)

	_, err := archive.ReadMetadata(context.Background(), types.MetaFileManifest)
	require.Error(t, err)
	assert.True(t, shared.IsMetaFileNotFound(err))
}

// ---------------------------------------------------------------------------
// Verify and Unpack
// ---------------------------------------------------------------------------

func TestArchiveUnpack(t *testing.T) {
	cipher := &fakeCipher{entries: map[string]string{
		"IDENT": "chef/redis/3.0.1/20150521131347",
	}}
	archive := NewArchive("/tmp/redis.bldr", cipher)

	require.NoError(t, archive.Verify(context.Background()))
	pkg, err := archive.Unpack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "chef/redis/3.0.1/20150521131347", pkg.String())
	assert.Equal(t, []string{"/tmp/redis.bldr"}, cipher.extracted)
}

func TestArchiveVerifyFailure(t *testing.T) {
	cipher := &fakeCipher{verifyErr: shared.MetaFileNotFound("signature")}
	archive := NewArchive("/tmp/redis.bldr", cipher)
	require.Error(t, archive.Verify(context.Background()))
}

func TestArchiveFileName(t *testing.T) {
	archive := NewArchive("/var/cache/pkgs/chef-redis-3.0.1-20150521131347.bldr", &fakeCipher{})
	assert.Equal(t, "chef-redis-3.0.1-20150521131347.bldr", archive.FileName())
}
