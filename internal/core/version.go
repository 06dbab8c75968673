// Package core implements the pure package-identity logic: the version
// comparator, identity parsing, the partial order over packages, and
// discovery of installed packages on disk.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// versionRe is the whole version grammar: one or more dot-separated
// digit runs, optionally followed by "-extension".
var versionRe = regexp.MustCompile(`^([\d.]+)(-.+)?$`)

func badVersion(value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("bad version: %q", value))
}

// SplitVersion separates a version string into its numeric components
// and optional extension. "1.2.3-beta16" yields ["1" "2" "3"] and
// "beta16"; a missing extension yields the empty string.
func SplitVersion(version string) ([]string, string, error) {
	caps := versionRe.FindStringSubmatch(version)
	if caps == nil {
		return nil, "", badVersion(version)
	}
	extension := caps[2]
	if extension != "" {
		extension = extension[1:]
	}
	return strings.Split(caps[1], "."), extension, nil
}

// CompareVersions orders two version strings, returning -1, 0, or 1.
//
// The numeric components are walked pairwise, a sequence exhausted
// early contributing zeros, and the first difference decides. At equal
// numerics a version without an extension is greater than the same
// version with one (1.0.0 > 1.0.0-alpha6); two extensions compare
// lexicographically. Any string outside the grammar, or a component
// that does not parse as an unsigned integer, is a bad-version error.
func CompareVersions(a string, b string) (int, error) {
	aParts, aExt, err := SplitVersion(a)
	if err != nil {
		return 0, err
	}
	bParts, bExt, err := SplitVersion(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(aParts) || i < len(bParts); i++ {
		var aNum, bNum uint64
		if i < len(aParts) {
			aNum, err = strconv.ParseUint(aParts[i], 10, 64)
			if err != nil {
				return 0, badVersion(a)
			}
		}
		if i < len(bParts) {
			bNum, err = strconv.ParseUint(bParts[i], 10, 64)
			if err != nil {
				return 0, badVersion(b)
			}
		}
		switch {
		case aNum > bNum:
			return 1, nil
		case aNum < bNum:
			return -1, nil
		}
	}
	switch {
	case aExt == "" && bExt == "":
		return 0, nil
	case aExt == "":
		return 1, nil
	case bExt == "":
		return -1, nil
	default:
		return strings.Compare(aExt, bExt), nil
	}
}
