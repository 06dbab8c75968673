// Package adapters implements the collaborator ports against the real
// world: the gpg|tar pipeline, the HTTP and file-backed repositories,
// mustache rendering, and the keyring.
package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgagent/internal/ports"
	"pkgagent/internal/shared"
)

// GPGArchiveAdapter drives the external decrypt/extract collaborator.
// Archives are GPG-encrypted, signed tar streams; every call re-invokes
// the pipeline, nothing is cached.
type GPGArchiveAdapter struct {
	GPGHome string
}

func NewGPGArchiveAdapter(gpgHome string) GPGArchiveAdapter {
	if strings.TrimSpace(gpgHome) == "" {
		gpgHome = shared.DefaultGPGHome
	}
	return GPGArchiveAdapter{GPGHome: gpgHome}
}

func (a GPGArchiveAdapter) ReadEntry(ctx context.Context, archivePath string, entry string) (string, error) {
	pipeline := fmt.Sprintf("gpg --homedir %s --decrypt %s | tar xO --wildcards --no-anchored %s",
		a.GPGHome, archivePath, entry)
	cmd := exec.CommandContext(ctx, "sh", "-c", pipeline)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), fmt.Sprintf("%s: Not found in archive", entry)) {
			return "", shared.MetaFileNotFound(entry)
		}
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("archive read failed: %s", strings.TrimSpace(stderr.String()))).
			WithCause(err)
	}
	return stdout.String(), nil
}

func (a GPGArchiveAdapter) ExtractAll(ctx context.Context, archivePath string) error {
	pipeline := fmt.Sprintf("gpg --homedir %s --decrypt %s | tar -C / -x", a.GPGHome, archivePath)
	cmd := exec.CommandContext(ctx, "sh", "-c", pipeline)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unpack failed").
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

func (a GPGArchiveAdapter) Verify(ctx context.Context, archivePath string) error {
	cmd := exec.CommandContext(ctx, "gpg", "--homedir", a.GPGHome, "--verify", archivePath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("signature verification failed: %s", archivePath)).
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

var _ ports.ArchiveCipher = GPGArchiveAdapter{}
