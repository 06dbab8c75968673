package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgagent/internal/adapters"
	"pkgagent/internal/types"
	"pkgagent/tests/testutil"
)

func testLifecycle(t *testing.T) (*Lifecycle, string, string) {
	t.Helper()
	installRoot := t.TempDir()
	serviceRoot := t.TempDir()
	pkg := types.NewPackage("chef", "redis", "3.0.1", "20150521131347")
	testutil.InstallPackage(t, installRoot, pkg.String())
	lifecycle := &Lifecycle{
		Pkg:         pkg,
		InstallRoot: installRoot,
		ServiceRoot: serviceRoot,
		Template:    adapters.NewMustacheTemplateAdapter(),
	}
	return lifecycle, installRoot, serviceRoot
}

// installSupervisor places a fake supervisor control binary where the
// signal path expects the runit package, recording its arguments.
func installSupervisor(t *testing.T, installRoot string, body string) string {
	t.Helper()
	dir := testutil.InstallPackage(t, installRoot, "chef/runit/2.1.2/20150521131200")
	testutil.WriteScript(t, filepath.Join(dir, "bin", "sv"), body)
	return dir
}

// ---------------------------------------------------------------------------
// CreateSvcPath
// ---------------------------------------------------------------------------

func TestCreateSvcPath(t *testing.T) {
	lifecycle, _, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())

	for _, sub := range []string{"config", "hooks", "toml", "data", "var"} {
		info, err := os.Stat(lifecycle.Pkg.SvcJoinPath(serviceRoot, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir(), sub)
	}
	for _, locked := range []string{"toml", "data", "var"} {
		info, err := os.Stat(lifecycle.Pkg.SvcJoinPath(serviceRoot, locked))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm(), locked)
	}
}

func TestCreateSvcPathIdempotent(t *testing.T) {
	lifecycle, _, _ := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	require.NoError(t, lifecycle.CreateSvcPath())
}

// ---------------------------------------------------------------------------
// CopyRun
// ---------------------------------------------------------------------------

func TestCopyRunWithHook(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/run"), "exec redis-server")

	require.NoError(t, lifecycle.CopyRun(nil))

	svcRun := lifecycle.Pkg.SvcJoinPath(serviceRoot, "run")
	target, err := os.Readlink(svcRun)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Pkg.SvcJoinPath(serviceRoot, "hooks/run"), target)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyRunWithoutHook(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "run"), "exec redis-server")

	require.NoError(t, lifecycle.CopyRun(nil))

	target, err := os.Readlink(lifecycle.Pkg.SvcJoinPath(serviceRoot, "run"))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Pkg.JoinPath(installRoot, "run"), target)
}

func TestCopyRunIdempotent(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/run"), "exec redis-server")

	require.NoError(t, lifecycle.CopyRun(nil))
	first, err := os.Lstat(lifecycle.Pkg.SvcJoinPath(serviceRoot, "run"))
	require.NoError(t, err)

	require.NoError(t, lifecycle.CopyRun(nil))
	second, err := os.Lstat(lifecycle.Pkg.SvcJoinPath(serviceRoot, "run"))
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime(), "an up-to-date link must not be rewritten")
}

// ---------------------------------------------------------------------------
// Hooks
// ---------------------------------------------------------------------------

func TestInitializeWithoutHook(t *testing.T) {
	lifecycle, _, _ := testLifecycle(t)
	require.NoError(t, lifecycle.Initialize(nil))
}

func TestInitializeRunsHook(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	marker := filepath.Join(t.TempDir(), "ran")
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/init"), "touch "+marker)

	require.NoError(t, lifecycle.Initialize(nil))
	_, err := os.Stat(marker)
	assert.NoError(t, err, "init hook must have run")
}

func TestReconfigureRunsHook(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/reconfigure"), "exit 0")

	require.NoError(t, lifecycle.Reconfigure(nil))
}

func TestReconfigureFallsBackToRestart(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	argsFile := filepath.Join(t.TempDir(), "args")
	installSupervisor(t, installRoot, "echo \"$@\" > "+argsFile)

	require.NoError(t, lifecycle.Reconfigure(nil))

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(recorded), "restart "+lifecycle.Pkg.SvcPath(serviceRoot))
}

func TestReconfigureFallbackFailure(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	installSupervisor(t, installRoot, "exit 1")

	err := lifecycle.Reconfigure(nil)
	require.Error(t, err)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, types.HookTypeReconfigure, hookErr.Hook)
	assert.Equal(t, -1, hookErr.Code)
}

// ---------------------------------------------------------------------------
// RenderConfigFiles
// ---------------------------------------------------------------------------

func TestRenderConfigFiles(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteFile(t, lifecycle.Pkg.JoinPath(installRoot, "config/default.toml"), "port = 6379\n")
	testutil.WriteFile(t, lifecycle.Pkg.JoinPath(installRoot, "config/redis.conf"), "port {{port}}\n")

	cfg := NewServiceConfig(lifecycle.Pkg, installRoot, serviceRoot)
	require.NoError(t, cfg.Load(context.Background()))
	require.NoError(t, lifecycle.RenderConfigFiles(cfg))

	rendered, err := os.ReadFile(lifecycle.Pkg.SvcJoinPath(serviceRoot, "config/redis.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "port 6379")
}

func TestRenderConfigFilesNoConfigDir(t *testing.T) {
	lifecycle, _, serviceRoot := testLifecycle(t)
	cfg := NewServiceConfig(lifecycle.Pkg, lifecycle.InstallRoot, serviceRoot)
	require.NoError(t, lifecycle.RenderConfigFiles(cfg))
}

// ---------------------------------------------------------------------------
// HealthCheck
// ---------------------------------------------------------------------------

func TestHealthCheckExitCodeMapping(t *testing.T) {
	cases := []struct {
		exit int
		want types.HealthStatus
	}{
		{0, types.HealthOK},
		{1, types.HealthWarning},
		{2, types.HealthCritical},
		{3, types.HealthUnknown},
	}
	for _, tc := range cases {
		lifecycle, installRoot, _ := testLifecycle(t)
		require.NoError(t, lifecycle.CreateSvcPath())
		testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/health_check"),
			"echo checked\nexit "+strconv.Itoa(tc.exit))

		result, err := lifecycle.HealthCheck(nil)
		require.NoError(t, err, "exit %d", tc.exit)
		assert.Equal(t, tc.want, result.Status, "exit %d", tc.exit)
		assert.Contains(t, result.Output, "checked")
	}
}

func TestHealthCheckUnmappedExitCode(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	testutil.WriteScript(t, lifecycle.Pkg.JoinPath(installRoot, "hooks/health_check"), "exit 4")

	_, err := lifecycle.HealthCheck(nil)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestHealthCheckDefaultWithoutConfig(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	installSupervisor(t, installRoot, "echo \"run: redis: (pid 1234) 42s\"")

	result, err := lifecycle.HealthCheck(nil)
	require.NoError(t, err)
	assert.Equal(t, types.HealthOK, result.Status)
	assert.Contains(t, result.Output, "run: redis")
}

func TestHealthCheckDefault(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	require.NoError(t, lifecycle.CreateSvcPath())
	installSupervisor(t, installRoot, "echo \"run: redis: (pid 1234) 42s\"")

	cfg := NewServiceConfig(lifecycle.Pkg, installRoot, serviceRoot)
	require.NoError(t, cfg.Load(context.Background()))
	require.NoError(t, cfg.WriteSnapshot())

	result, err := lifecycle.HealthCheck(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.HealthOK, result.Status)
	assert.Contains(t, result.Output, "run: redis")
	assert.Contains(t, result.Output, "name = 'redis'")
}

// ---------------------------------------------------------------------------
// Signal
// ---------------------------------------------------------------------------

func TestSignalInvokesSupervisor(t *testing.T) {
	lifecycle, installRoot, serviceRoot := testLifecycle(t)
	argsFile := filepath.Join(t.TempDir(), "args")
	installSupervisor(t, installRoot, "echo \"$@\" > "+argsFile+"\necho ok")

	output, err := lifecycle.Signal(types.SignalUp)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", output)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "up "+lifecycle.Pkg.SvcPath(serviceRoot)+"\n", string(recorded))
}

func TestSignalUsesNewestSupervisor(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	installSupervisor(t, installRoot, "echo old")
	newer := testutil.InstallPackage(t, installRoot, "chef/runit/2.2.0/20150521131200")
	testutil.WriteScript(t, filepath.Join(newer, "bin", "sv"), "echo new")

	output, err := lifecycle.Signal(types.SignalStatus)
	require.NoError(t, err)
	assert.Equal(t, "new\n", output)
}

func TestSignalFailure(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	installSupervisor(t, installRoot, "echo broken >&2\nexit 1")

	_, err := lifecycle.Signal(types.SignalStop)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestSignalForceShutdownToleratesFailure(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	installSupervisor(t, installRoot, "echo already gone\nexit 1")

	output, err := lifecycle.Signal(types.SignalForceShutdown)
	require.NoError(t, err)
	assert.Equal(t, "already gone\n", output)
}

func TestSignalWithoutSupervisorPackage(t *testing.T) {
	lifecycle, _, _ := testLifecycle(t)
	_, err := lifecycle.Signal(types.SignalUp)
	require.Error(t, err)
	assert.False(t, lifecycle.SupervisorRunning())
}

// ---------------------------------------------------------------------------
// Exposes
// ---------------------------------------------------------------------------

func TestExposes(t *testing.T) {
	lifecycle, installRoot, _ := testLifecycle(t)
	testutil.WriteFile(t, lifecycle.Pkg.JoinPath(installRoot, "EXPOSES"), "6379 16379\n")
	assert.Equal(t, []string{"6379", "16379"}, lifecycle.Exposes())
}

func TestExposesMissing(t *testing.T) {
	lifecycle, _, _ := testLifecycle(t)
	assert.Nil(t, lifecycle.Exposes())
}
