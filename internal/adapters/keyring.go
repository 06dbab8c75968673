package adapters

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgagent/internal/shared"
)

// KeyringAdapter manages the public keys the decrypt/verify pipeline
// trusts. Key material is validated in-process before it is handed to
// the external keyring.
type KeyringAdapter struct {
	GPGHome string
}

func NewKeyringAdapter(gpgHome string) KeyringAdapter {
	if strings.TrimSpace(gpgHome) == "" {
		gpgHome = shared.DefaultGPGHome
	}
	return KeyringAdapter{GPGHome: gpgHome}
}

// ImportKey parses the key file at path, rejecting anything that is not
// valid OpenPGP key material, then imports it into the keyring home.
// Returns the primary key identities that were imported.
func (a KeyringAdapter) ImportKey(ctx context.Context, path string) ([]string, error) {
	keyFile, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("key file not found: " + path).
			WithCause(err)
	}
	defer keyFile.Close()

	entities, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		if _, seekErr := keyFile.Seek(0, 0); seekErr != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to rewind key file").
				WithCause(seekErr)
		}
		entities, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("not a valid key file: " + path).
				WithCause(err)
		}
	}
	if len(entities) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no keys found in key file: " + path)
	}
	var identities []string
	for _, entity := range entities {
		for name := range entity.Identities {
			identities = append(identities, name)
		}
	}

	if err := os.MkdirAll(a.GPGHome, 0o700); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create keyring home").
			WithCause(err)
	}
	cmd := exec.CommandContext(ctx, "gpg", "--homedir", a.GPGHome, "--import", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("key import failed").
			WithCause(shared.CommandError(output, err))
	}
	return identities, nil
}
