package app

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgagent/internal/ports"
	"pkgagent/internal/shared"
	"pkgagent/internal/types"
)

// Hook is one lifecycle script: an immutable template under the package
// tree and a compiled copy under the mutable service tree.
type Hook struct {
	Type         types.HookType
	TemplatePath string
	CompiledPath string
	Template     ports.Template
}

// Compile materializes the hook. With a config the template is rendered
// against the merged tree; without one the template is copied
// byte-for-byte (the unparameterized run-hook path). The compiled file
// is written with owner-execute permission, and either lands fully
// written or not at all: rendering happens in memory and the bytes
// move into place with a rename.
func (h Hook) Compile(cfg *ServiceConfig) error {
	var content []byte
	if cfg != nil {
		rendered, err := h.Template.Render(h.TemplatePath, cfg.Data())
		if err != nil {
			return err
		}
		content = rendered
	} else {
		raw, err := os.ReadFile(h.TemplatePath)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("hook template not readable: " + h.TemplatePath).
				WithCause(err)
		}
		content = raw
	}
	return writeExecutable(h.CompiledPath, content)
}

// Run compiles and executes the hook with no arguments, returning the
// captured stdout and stderr joined by a newline. Non-zero exit or a
// launch failure yields a HookError; the code is -1 when the process
// never reported one.
func (h Hook) Run(cfg *ServiceConfig) (string, error) {
	if err := h.Compile(cfg); err != nil {
		return "", err
	}
	cmd := exec.Command(h.CompiledPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	output := shared.FormatOutput(stdout.Bytes(), stderr.Bytes())
	if err == nil {
		return output, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the process died on a signal; the
		// captured output is still the hook's to report.
		return "", newHookError(h.Type, exitErr.ExitCode(), output)
	}
	return "", newHookError(h.Type, -1, "couldn't run hook: "+h.CompiledPath)
}

// HookTable is the per-query lookup of the package's hooks. A nil slot
// means the package does not define that hook, which is a valid and
// common state.
type HookTable struct {
	Init        *Hook
	HealthCheck *Hook
	Reconfigure *Hook
	Run         *Hook
}

// LoadHooks probes the package hooks/ directory and populates a slot
// for each hook whose template file exists. Compiled paths always point
// under the service hooks/ directory regardless of template presence.
func LoadHooks(pkg types.Package, installRoot string, serviceRoot string, template ports.Template) HookTable {
	table := HookTable{}
	hookDir := pkg.JoinPath(installRoot, "hooks")
	info, err := os.Stat(hookDir)
	if err != nil || !info.IsDir() {
		return table
	}
	for _, htype := range types.HookTypes {
		templatePath := filepath.Join(hookDir, string(htype))
		if _, err := os.Stat(templatePath); err != nil {
			continue
		}
		hook := &Hook{
			Type:         htype,
			TemplatePath: templatePath,
			CompiledPath: pkg.SvcJoinPath(serviceRoot, filepath.Join("hooks", string(htype))),
			Template:     template,
		}
		switch htype {
		case types.HookTypeInit:
			table.Init = hook
		case types.HookTypeHealthCheck:
			table.HealthCheck = hook
		case types.HookTypeReconfigure:
			table.Reconfigure = hook
		case types.HookTypeRun:
			table.Run = hook
		}
	}
	return table
}

// writeExecutable writes content to path with mode 0770 atomically: a
// temp file in the same directory renamed into place, so a failure
// leaves any previous compiled hook untouched.
func writeExecutable(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage compiled hook").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write compiled hook").
			WithCause(err)
	}
	if err := tmp.Chmod(0o770); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set compiled hook mode").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close compiled hook").
			WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to place compiled hook").
			WithCause(err)
	}
	return nil
}
