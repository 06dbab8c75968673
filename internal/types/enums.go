package types

// MetaFile names one of the fixed metadata entries embedded in a
// package archive. The set is closed: the archive format defines
// exactly these entries.
type MetaFile string

const (
	MetaFileCFlags    MetaFile = "CFLAGS"
	MetaFileDeps      MetaFile = "DEPS"
	MetaFileExposes   MetaFile = "EXPOSES"
	MetaFileIdent     MetaFile = "IDENT"
	MetaFileLdRunPath MetaFile = "LD_RUN_PATH"
	MetaFileLdFlags   MetaFile = "LDFLAGS"
	MetaFileManifest  MetaFile = "MANIFEST"
	MetaFilePath      MetaFile = "PATH"
)

// HookType names one of the four lifecycle hooks. The string value is
// the hook's file name under both the package and service hooks/
// directories.
type HookType string

const (
	HookTypeInit        HookType = "init"
	HookTypeHealthCheck HookType = "health_check"
	HookTypeReconfigure HookType = "reconfigure"
	HookTypeRun         HookType = "run"
)

// HookTypes lists every hook in probe order.
var HookTypes = []HookType{HookTypeInit, HookTypeHealthCheck, HookTypeReconfigure, HookTypeRun}

// Signal is a control verb understood by the external process
// supervisor. Values are the literal arguments passed to the control
// binary.
type Signal string

const (
	SignalStatus        Signal = "status"
	SignalUp            Signal = "up"
	SignalDown          Signal = "down"
	SignalOnce          Signal = "once"
	SignalPause         Signal = "pause"
	SignalCont          Signal = "cont"
	SignalHup           Signal = "hup"
	SignalAlarm         Signal = "alarm"
	SignalInterrupt     Signal = "interrupt"
	SignalQuit          Signal = "quit"
	SignalOne           Signal = "1"
	SignalTwo           Signal = "2"
	SignalTerm          Signal = "term"
	SignalKill          Signal = "kill"
	SignalExit          Signal = "exit"
	SignalStart         Signal = "start"
	SignalStop          Signal = "stop"
	SignalReload        Signal = "reload"
	SignalRestart       Signal = "restart"
	SignalShutdown      Signal = "shutdown"
	SignalForceStop     Signal = "force-stop"
	SignalForceReload   Signal = "force-reload"
	SignalForceRestart  Signal = "force-restart"
	SignalForceShutdown Signal = "force-shutdown"
	SignalTryRestart    Signal = "try-restart"
)

var signals = []Signal{
	SignalStatus, SignalUp, SignalDown, SignalOnce, SignalPause,
	SignalCont, SignalHup, SignalAlarm, SignalInterrupt, SignalQuit,
	SignalOne, SignalTwo, SignalTerm, SignalKill, SignalExit,
	SignalStart, SignalStop, SignalReload, SignalRestart,
	SignalShutdown, SignalForceStop, SignalForceReload,
	SignalForceRestart, SignalForceShutdown, SignalTryRestart,
}

// ParseSignal maps a verb string onto a Signal, reporting whether the
// verb is known.
func ParseSignal(verb string) (Signal, bool) {
	for _, sig := range signals {
		if string(sig) == verb {
			return sig, true
		}
	}
	return "", false
}

// UpdaterStatus is the background updater's lifecycle state.
type UpdaterStatus string

const (
	UpdaterStatusRunning UpdaterStatus = "running"
	UpdaterStatusStopped UpdaterStatus = "stopped"
)
