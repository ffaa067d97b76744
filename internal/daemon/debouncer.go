package daemon

import (
	"context"
	"time"
)

// DebouncerConfig bounds how long change bursts are coalesced.
type DebouncerConfig struct {
	// QuietWindow is how long the source tree must stay silent before a
	// rebuild trigger fires.
	QuietWindow time.Duration
	// MaxDelay caps the total postponement under continuous changes.
	MaxDelay time.Duration
}

// Trigger describes one coalesced burst of source changes.
type Trigger struct {
	At    time.Time
	Cause string // "quiet" or "max_delay"
	Notes int    // observations coalesced into this trigger
}

// Debouncer coalesces bursts of change notifications into single rebuild
// triggers:
//   - quiet window debounce
//   - max delay (a busy tree cannot postpone rebuilds indefinitely)
//
// Note never blocks and is safe from any goroutine; Run owns the timers
// and all remaining state.
type Debouncer struct {
	cfg   DebouncerConfig
	notes chan struct{}
	fired chan Trigger

	// Owned by Run.
	pending   bool
	noteCount int
}

func NewDebouncer(cfg DebouncerConfig) *Debouncer {
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	return &Debouncer{
		cfg:   cfg,
		notes: make(chan struct{}, 64),
		fired: make(chan Trigger, 1),
	}
}

// Note records one change observation. It never blocks; observations that
// overflow the buffer are already covered by the pending trigger.
func (d *Debouncer) Note() {
	select {
	case d.notes <- struct{}{}:
	default:
	}
}

// Fired yields one trigger per coalesced burst.
func (d *Debouncer) Fired() <-chan Trigger {
	return d.fired
}

// Run drives the debounce timers until ctx is canceled.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := time.NewTimer(time.Hour)
	stopTimer(quietTimer)
	maxTimer := time.NewTimer(time.Hour)
	stopTimer(maxTimer)

	var (
		quietC <-chan time.Time
		maxC   <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return

		case <-d.notes:
			if !d.pending {
				d.pending = true
				d.noteCount = 0
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}
			d.noteCount++
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C

		case <-quietC:
			d.emit("quiet")
			stopTimer(maxTimer)
			quietC, maxC = nil, nil

		case <-maxC:
			d.emit("max_delay")
			stopTimer(quietTimer)
			quietC, maxC = nil, nil
		}
	}
}

func (d *Debouncer) emit(cause string) {
	if !d.pending {
		return
	}
	trig := Trigger{At: time.Now(), Cause: cause, Notes: d.noteCount}
	d.pending = false
	d.noteCount = 0

	select {
	case d.fired <- trig:
	default:
		// A trigger is already queued; the next full rebuild covers this
		// burst as well.
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
