package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

const metaFileNotFoundPrefix = "metafile not found in archive"

// MetaFileNotFound builds the recoverable error reported when a named
// metadata entry is absent from an archive. Callers detect it with
// IsMetaFileNotFound; every ArchiveCipher implementation must use this
// constructor for the absence case.
func MetaFileNotFound(entry string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s: %s", metaFileNotFoundPrefix, entry))
}

// IsMetaFileNotFound reports whether err is a metadata-entry-absent
// error. Absence is the one archive failure converted to an empty
// result instead of propagating.
func IsMetaFileNotFound(err error) bool {
	return errbuilder.CodeOf(err) == errbuilder.CodeNotFound &&
		strings.HasPrefix(ErrorMessage(err), metaFileNotFoundPrefix)
}

// ErrorMessage extracts the builder message from an error when present,
// falling back to Error().
func ErrorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
