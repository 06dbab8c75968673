// Package shared provides common utility functions used across multiple
// packages in the pkgagent codebase.
package shared

import (
	"fmt"
	"strings"
)

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// FormatOutput joins captured stdout and stderr into the single output
// string attached to hook and supervisor results.
func FormatOutput(stdout []byte, stderr []byte) string {
	return fmt.Sprintf("%s\n%s", stdout, stderr)
}
