// Package testutil provides shared helpers for building fake package
// trees and executable scripts in temporary directories.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// InstallPackage creates the install directory for the given
// "derivation/name/version/release" ident under installRoot and
// returns its path.
func InstallPackage(t *testing.T, installRoot string, ident string) string {
	t.Helper()
	segments := strings.Split(ident, "/")
	require.Len(t, segments, 4, "ident must have four segments")
	dir := filepath.Join(append([]string{installRoot}, segments...)...)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// WriteScript writes an executable shell script at path, creating
// parent directories as needed.
func WriteScript(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

// WriteFile writes a regular file at path, creating parent directories
// as needed.
func WriteFile(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
