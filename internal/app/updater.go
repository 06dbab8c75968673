package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pkgagent/internal/core"
	"pkgagent/internal/ports"
	"pkgagent/internal/types"
)

// updateInterval is the updater's poll tick and only retry clock.
const updateInterval = 60 * time.Second

// SharedPackage is the reader/writer-guarded handle to the package a
// control path currently considers installed. The updater only ever
// reads through it; promotion to a newer package happens in the owner.
type SharedPackage struct {
	mu  sync.RWMutex
	pkg types.Package
}

func NewSharedPackage(pkg types.Package) *SharedPackage {
	return &SharedPackage{pkg: pkg}
}

func (s *SharedPackage) Get() types.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pkg
}

// Set replaces the package. Only the owning control path calls this,
// when consuming an Update event.
func (s *SharedPackage) Set(pkg types.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkg = pkg
}

// UpdateEvent announces a strictly newer package that has been fetched,
// verified, and unpacked. Promotion is the receiver's job.
type UpdateEvent struct {
	Pkg types.Package
}

// Updater polls the repository for a newer release of one package and
// materializes it when found. One Updater runs per tracked package as
// an independent goroutine; all communication with the owner flows
// through the Events channel.
type Updater struct {
	Repo     ports.Repo
	Cipher   ports.ArchiveCipher
	Shared   *SharedPackage
	CacheDir string

	// Interval overrides the 60 s tick; tests shorten it.
	Interval time.Duration

	statusMu sync.Mutex
	status   types.UpdaterStatus

	events chan UpdateEvent
	rearm  chan struct{}
}

func NewUpdater(repo ports.Repo, cipher ports.ArchiveCipher, shared *SharedPackage, cacheDir string) *Updater {
	return &Updater{
		Repo:     repo,
		Cipher:   cipher,
		Shared:   shared,
		CacheDir: cacheDir,
		Interval: updateInterval,
		status:   types.UpdaterStatusStopped,
		events:   make(chan UpdateEvent, 1),
		rearm:    make(chan struct{}, 1),
	}
}

// Events is the updater-to-owner message channel. At most one
// UpdateEvent is emitted per watch cycle; the buffer guarantees the
// emit never blocks the updater goroutine.
func (u *Updater) Events() <-chan UpdateEvent {
	return u.events
}

// Status reports the updater's lifecycle state.
func (u *Updater) Status() types.UpdaterStatus {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	return u.status
}

func (u *Updater) setStatus(status types.UpdaterStatus) {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	u.status = status
}

// Run re-arms the poll timer without changing status. The owner calls
// it to resume watching after consuming an update, or to force an
// early tick.
func (u *Updater) Run() {
	select {
	case u.rearm <- struct{}{}:
	default:
	}
}

// Start launches the background loop. It returns immediately; the loop
// exits when ctx is cancelled.
func (u *Updater) Start(ctx context.Context) {
	u.setStatus(types.UpdaterStatusRunning)
	go u.loop(ctx)
}

func (u *Updater) loop(ctx context.Context) {
	timer := time.NewTimer(u.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.rearm:
			// Re-arms the timer only; status is left as-is.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(u.Interval)
		case <-timer.C:
			if u.tick(ctx) {
				// Terminal for this watch cycle: the timer stays
				// disarmed until a Run message re-arms it.
				u.setStatus(types.UpdaterStatusStopped)
				continue
			}
			timer.Reset(u.Interval)
		}
	}
}

// tick runs one poll cycle, reporting whether a newer package was
// promoted to an UpdateEvent. Every failure is transient: the cycle
// logs and returns false, and the next tick retries. There is no
// mid-flight cancellation of fetch/verify/unpack.
func (u *Updater) tick(ctx context.Context) bool {
	current := u.Shared.Get()
	latest, err := u.Repo.ShowLatest(ctx, current.Derivation, current.Name, "")
	if err != nil {
		log.Debug().Err(err).Str("package", current.String()).Msg("updater failed to get latest package")
		return false
	}
	ord, ok := core.Compare(latest, current)
	if !ok || ord <= 0 {
		log.Debug().Str("package", current.String()).Msg("package found is not newer than ours")
		return false
	}
	archivePath, err := u.Repo.FetchExact(ctx, latest, u.CacheDir)
	if err != nil {
		log.Debug().Err(err).Str("package", latest.String()).Msg("failed to download package")
		return false
	}
	log.Debug().Str("archive", archivePath).Msg("updater downloaded new package")
	archive := NewArchive(archivePath, u.Cipher)
	if err := archive.Verify(ctx); err != nil {
		log.Error().Err(err).Str("archive", archive.FileName()).Msg("downloaded package failed verification")
		return false
	}
	if _, err := archive.Unpack(ctx); err != nil {
		log.Error().Err(err).Str("archive", archive.FileName()).Msg("downloaded package failed to unpack")
		return false
	}
	u.events <- UpdateEvent{Pkg: latest}
	return true
}
