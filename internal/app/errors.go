package app

import (
	"fmt"

	"pkgagent/internal/types"
)

// HookError reports a lifecycle hook that exited non-zero or could not
// be launched. Code is -1 when no exit code could be determined. The
// concrete code matters to callers (the health-check mapping switches
// on it), so this is a typed error rather than a builder message.
type HookError struct {
	Hook   types.HookType
	Code   int
	Output string
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s failed: code=%d output=%s", e.Hook, e.Code, e.Output)
}

func newHookError(hook types.HookType, code int, output string) *HookError {
	return &HookError{Hook: hook, Code: code, Output: output}
}
