package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pkgagent/internal/core"
	"pkgagent/internal/ports"
	"pkgagent/internal/types"
)

// Supervisor coordinate: the runit-equivalent package whose bin/sv
// binary controls running services. Treated as an always-installed
// system dependency.
const (
	supervisorDerivation = "chef"
	supervisorName       = "runit"
	supervisorBinary     = "bin/sv"
)

const runFileName = string(types.HookTypeRun)

// Lifecycle drives one package's service directory, hooks, and
// supervisor signals. Hook executions and signal deliveries for a
// single package are serialized by mu and must never overlap.
type Lifecycle struct {
	Pkg         types.Package
	InstallRoot string
	ServiceRoot string
	Template    ports.Template

	// SvcUser and SvcGroup own the writable service subdirectories.
	// Empty values skip the ownership change.
	SvcUser  string
	SvcGroup string

	mu sync.Mutex
}

// Hooks probes the package's hook templates.
func (l *Lifecycle) Hooks() HookTable {
	return LoadHooks(l.Pkg, l.InstallRoot, l.ServiceRoot, l.Template)
}

// CreateSvcPath creates the per-service directory tree and applies the
// fixed permission invariants. Safe to call repeatedly.
func (l *Lifecycle) CreateSvcPath() error {
	log.Debug().Str("service", l.Pkg.Name).Msg("creating service paths")
	for _, sub := range []string{"config", "hooks", "toml", "data", "var"} {
		if err := os.MkdirAll(l.Pkg.SvcJoinPath(l.ServiceRoot, sub), 0o755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create service directory: " + sub).
				WithCause(err)
		}
	}
	if err := os.Chmod(l.Pkg.SvcJoinPath(l.ServiceRoot, "toml"), 0o700); err != nil {
		return permError("toml", err)
	}
	for _, sub := range []string{"data", "var"} {
		path := l.Pkg.SvcJoinPath(l.ServiceRoot, sub)
		if err := l.chownSvc(path); err != nil {
			return err
		}
		if err := os.Chmod(path, 0o700); err != nil {
			return permError(sub, err)
		}
	}
	return nil
}

// CopyRun ensures the service run entry point links to the right
// executable: the compiled run hook when the package defines one, the
// package's raw run file otherwise. The link is rewritten only when it
// points elsewhere, so repeated calls do not churn the supervisor.
func (l *Lifecycle) CopyRun(cfg *ServiceConfig) error {
	log.Debug().Str("service", l.Pkg.Name).Msg("linking run file")
	svcRun := l.Pkg.SvcJoinPath(l.ServiceRoot, runFileName)
	if hook := l.Hooks().Run; hook != nil {
		if err := hook.Compile(cfg); err != nil {
			return err
		}
		target, err := os.Readlink(svcRun)
		if err == nil && target == hook.CompiledPath {
			return nil
		}
		if err := os.Chmod(hook.CompiledPath, 0o755); err != nil {
			return permError(runFileName, err)
		}
		return relink(hook.CompiledPath, svcRun)
	}
	run := l.Pkg.JoinPath(l.InstallRoot, runFileName)
	if err := os.Chmod(run, 0o755); err != nil {
		return permError(runFileName, err)
	}
	if target, err := os.Readlink(svcRun); err == nil && target == run {
		return nil
	}
	return relink(run, svcRun)
}

// Initialize runs the init hook when present; otherwise a no-op.
func (l *Lifecycle) Initialize(cfg *ServiceConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	hook := l.Hooks().Init
	if hook == nil {
		return nil
	}
	_, err := hook.Run(cfg)
	return err
}

// Reconfigure runs the reconfigure hook, falling back to a Restart
// signal when the package defines none. A failed fallback signal is
// reported as a failed reconfigure hook.
func (l *Lifecycle) Reconfigure(cfg *ServiceConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hook := l.Hooks().Reconfigure; hook != nil {
		_, err := hook.Run(cfg)
		return err
	}
	if _, err := l.signal(types.SignalRestart); err != nil {
		return newHookError(types.HookTypeReconfigure, -1, "failed to run default hook: "+err.Error())
	}
	return nil
}

// RenderConfigFiles renders every file in the package config/ directory
// through the template collaborator into the service config/ directory.
func (l *Lifecycle) RenderConfigFiles(cfg *ServiceConfig) error {
	configDir := l.Pkg.JoinPath(l.InstallRoot, "config")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		// A package without config templates is valid.
		if os.IsNotExist(err) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package config directory: " + configDir).
			WithCause(err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		rendered, err := l.Template.Render(filepath.Join(configDir, entry.Name()), cfg.Data())
		if err != nil {
			return err
		}
		dest := l.Pkg.SvcJoinPath(l.ServiceRoot, filepath.Join("config", entry.Name()))
		if err := os.WriteFile(dest, rendered, 0o640); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write rendered config: " + entry.Name()).
				WithCause(err)
		}
	}
	return nil
}

// HealthCheck runs the health_check hook and maps its exit code onto a
// health status: 0 OK, 1 Warning, 2 Critical, 3 Unknown; anything else
// is a hard health-check failure. Without a hook the supervisor status
// plus the last config snapshot stand in for an OK result.
func (l *Lifecycle) HealthCheck(cfg *ServiceConfig) (types.HealthResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hook := l.Hooks().HealthCheck
	if hook == nil {
		statusOutput, err := l.signal(types.SignalStatus)
		if err != nil {
			return types.HealthResult{}, err
		}
		// Without a config context the supervisor status stands alone.
		if cfg == nil {
			return types.HealthResult{Status: types.HealthOK, Output: statusOutput}, nil
		}
		lastConfig, err := cfg.LastConfig()
		if err != nil {
			return types.HealthResult{}, err
		}
		return types.HealthResult{
			Status: types.HealthOK,
			Output: fmt.Sprintf("%s\n%s", statusOutput, lastConfig),
		}, nil
	}
	output, err := hook.Run(cfg)
	if err == nil {
		return types.HealthResult{Status: types.HealthOK, Output: output}, nil
	}
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		return types.HealthResult{}, err
	}
	switch hookErr.Code {
	case 1:
		return types.HealthResult{Status: types.HealthWarning, Output: hookErr.Output}, nil
	case 2:
		return types.HealthResult{Status: types.HealthCritical, Output: hookErr.Output}, nil
	case 3:
		return types.HealthResult{Status: types.HealthUnknown, Output: hookErr.Output}, nil
	default:
		return types.HealthResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("health check failed: code=%d output=%s", hookErr.Code, hookErr.Output))
	}
}

// Signal delivers one control verb to the process supervisor for this
// service and returns its stdout.
func (l *Lifecycle) Signal(sig types.Signal) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.signal(sig)
}

// Status asks the supervisor for the service's status line.
func (l *Lifecycle) Status() (string, error) {
	return l.Signal(types.SignalStatus)
}

// SupervisorRunning reduces the status probe to a boolean liveness
// answer; the underlying error never propagates.
func (l *Lifecycle) SupervisorRunning() bool {
	if _, err := l.Status(); err != nil {
		log.Debug().Err(err).Str("service", l.Pkg.Name).Msg("supervisor not running?")
		return false
	}
	return true
}

// Exposes lists the port tokens from the package's EXPOSES metafile,
// empty when the package exposes nothing.
func (l *Lifecycle) Exposes() []string {
	content, err := os.ReadFile(l.Pkg.JoinPath(l.InstallRoot, string(types.MetaFileExposes)))
	if err != nil {
		return nil
	}
	var exposes []string
	for _, token := range strings.Split(strings.TrimRight(string(content), "\n"), " ") {
		if token != "" {
			exposes = append(exposes, token)
		}
	}
	return exposes
}

// signal resolves the supervisor control binary via the installed
// runit-equivalent package and invokes it. Callers hold mu. A non-zero
// exit fails, except ForceShutdown whose stdout still counts as
// success: a service that is already gone is an acceptable terminal
// state for a forced shutdown.
func (l *Lifecycle) signal(sig types.Signal) (string, error) {
	runitPkg, err := core.Latest(l.InstallRoot, supervisorDerivation, supervisorName, "")
	if err != nil {
		return "", err
	}
	cmd := exec.Command(runitPkg.JoinPath(l.InstallRoot, supervisorBinary), string(sig), l.Pkg.SvcPath(l.ServiceRoot))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if sig == types.SignalForceShutdown {
			return stdout.String(), nil
		}
		log.Debug().
			Str("service", l.Pkg.Name).
			Str("signal", string(sig)).
			Str("stdout", stdout.String()).
			Str("stderr", stderr.String()).
			Msg("failed to send signal to the process supervisor")
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("supervisor signal failed: " + string(sig)).
			WithCause(err)
	}
	return stdout.String(), nil
}

func (l *Lifecycle) chownSvc(path string) error {
	if l.SvcUser == "" || l.SvcGroup == "" {
		return nil
	}
	usr, err := user.Lookup(l.SvcUser)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("service user not found: " + l.SvcUser).
			WithCause(err)
	}
	grp, err := user.LookupGroup(l.SvcGroup)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("service group not found: " + l.SvcGroup).
			WithCause(err)
	}
	uid, err := strconv.Atoi(usr.Uid)
	if err != nil {
		return err
	}
	gid, err := strconv.Atoi(grp.Gid)
	if err != nil {
		return err
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to set service dir owner: " + path).
			WithCause(err)
	}
	return nil
}

func relink(target string, linkPath string) error {
	if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace run link").
			WithCause(err)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to link run file").
			WithCause(err)
	}
	return nil
}

func permError(name string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg("failed to set permissions on " + name).
		WithCause(err)
}
