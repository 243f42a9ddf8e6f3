// Package elapsed derives the live timer readout from a server
// snapshot. The readout is recomputed from the stored baseline on every
// tick rather than incremented in place, so it cannot drift and it
// survives reloads and network gaps: any fresh snapshot fully
// reconstructs it.
package elapsed

import (
	"context"
	"sync"
	"time"

	"github.com/opsdeck/timetracker/internal/model"
)

// Reading is one second-accurate view of the active timer.
type Reading struct {
	// WorkSeconds is the active time display. While paused it is
	// frozen at the value from the moment the pause began.
	WorkSeconds int64
	// BreakSeconds ticks independently while paused and is zero
	// otherwise.
	BreakSeconds int64
	IsPaused     bool
	PauseReason  string
}

// At computes the readout for a snapshot at the given instant.
func At(snap *model.TimerSnapshot, now time.Time) (Reading, bool) {
	if snap == nil || !snap.HasActiveTimer || snap.Timer == nil {
		return Reading{}, false
	}
	t := snap.Timer

	var r Reading
	r.IsPaused = t.IsPaused
	if t.PauseReason != nil {
		r.PauseReason = *t.PauseReason
	}

	if t.IsPaused && t.PausedAt != nil {
		r.WorkSeconds = clampSeconds(t.PausedAt.Sub(t.StartedAt)) - t.TotalPausedSeconds
		r.BreakSeconds = clampSeconds(now.Sub(*t.PausedAt))
	} else {
		r.WorkSeconds = clampSeconds(now.Sub(t.StartedAt)) - t.TotalPausedSeconds
	}
	if r.WorkSeconds < 0 {
		r.WorkSeconds = 0
	}
	return r, true
}

func clampSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

// Watcher owns the widget-side ticking loop. It holds the last known
// snapshot as its baseline; Rebase swaps the baseline in whenever the
// client re-reads authoritative state.
type Watcher struct {
	mu   sync.Mutex
	snap *model.TimerSnapshot
	now  func() time.Time
}

func NewWatcher(snap *model.TimerSnapshot) *Watcher {
	return &Watcher{snap: snap, now: time.Now}
}

// NewWatcherWithClock wires a custom time source (tests).
func NewWatcherWithClock(snap *model.TimerSnapshot, now func() time.Time) *Watcher {
	return &Watcher{snap: snap, now: now}
}

// Rebase replaces the baseline with a fresh server snapshot, discarding
// any local-only state.
func (w *Watcher) Rebase(snap *model.TimerSnapshot) {
	w.mu.Lock()
	w.snap = snap
	w.mu.Unlock()
}

// Reading computes the current readout from the baseline.
func (w *Watcher) Reading() (Reading, bool) {
	w.mu.Lock()
	snap := w.snap
	w.mu.Unlock()
	return At(snap, w.now())
}

// Run ticks once per interval until the context is cancelled or the
// baseline reports no active timer. It delivers an initial reading
// immediately so the display never starts blank.
func (w *Watcher) Run(ctx context.Context, interval time.Duration, onTick func(Reading)) {
	if r, ok := w.Reading(); ok {
		onTick(r)
	} else {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r, ok := w.Reading()
			if !ok {
				return
			}
			onTick(r)
		}
	}
}
