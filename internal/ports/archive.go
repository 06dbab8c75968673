// Package ports declares the interfaces behind which the external
// collaborators sit: the decrypt/extract/verify pipeline, the remote
// package repository, and the template renderer.
package ports

import "context"

// ArchiveCipher is the decrypt/extract collaborator. Implementations
// invoke the external detached-signature-capable scheme; nothing is
// cached between calls.
type ArchiveCipher interface {
	// ReadEntry decrypts the archive and returns the raw content of the
	// single named entry. Entry absence is a distinguishable,
	// recoverable error; any other failure is not.
	ReadEntry(ctx context.Context, archivePath string, entry string) (string, error)

	// ExtractAll decrypts the archive and extracts its full contents
	// relative to the filesystem root.
	ExtractAll(ctx context.Context, archivePath string) error

	// Verify checks the archive's signature, returning nil iff valid.
	Verify(ctx context.Context, archivePath string) error
}
