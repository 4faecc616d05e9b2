// ABOUTME: Stabilises noisy stream titles into committed Last/Now transitions
// ABOUTME: A candidate title must hold for the station's interval before it is committed

// Package debounce filters flickering stream metadata into stable title changes.
// The Debouncer never reads the clock itself; callers pass the observation time,
// which keeps it deterministic and easy to test.
package debounce

import (
	"strings"
	"time"
)

// DefaultInterval is used when a station does not configure its own interval
const DefaultInterval = 3 * time.Second

// Snapshot is what the UI shows: the previous title, the current one, and the
// candidate waiting to be confirmed (empty unless a candidate is pending)
type Snapshot struct {
	Last string
	Now  string
	Next string
}

// Debouncer holds the per-station debounce state
type Debouncer struct {
	interval time.Duration

	pending      string
	pendingSince time.Time
	hasPending   bool

	now  string
	last string
}

// New creates an idle Debouncer. Non-positive intervals fall back to DefaultInterval.
func New(interval time.Duration) *Debouncer {
	d := &Debouncer{}
	d.SetInterval(interval)

	return d
}

// SetInterval changes the confirmation interval without touching the state
func (d *Debouncer) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	d.interval = interval
}

// Interval returns the confirmation interval in use
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Observe feeds one raw sample taken at time at, then evaluates the commit rule
func (d *Debouncer) Observe(sample string, at time.Time) Snapshot {
	sample = strings.TrimSpace(sample)

	switch {
	case !d.hasPending:
		if sample != "" && sample != d.now {
			d.setPending(sample, at)
		}

	case sample == d.pending:
		// Candidate keeps accumulating support

	case sample == "" || sample == d.now:
		// Flicker back to the committed title (or nothing at all) discards the candidate
		d.clearPending()

	default:
		// Most recent distinct candidate wins and restarts the timer
		d.setPending(sample, at)
	}

	return d.Tick(at)
}

// Tick commits the pending candidate once it has been stable for the interval
func (d *Debouncer) Tick(at time.Time) Snapshot {
	if d.hasPending && at.Sub(d.pendingSince) >= d.interval {
		d.last = d.now
		d.now = d.pending
		d.clearPending()
	}

	return d.Snapshot()
}

// Reset returns to Idle and forgets every committed and pending title
func (d *Debouncer) Reset() {
	d.clearPending()
	d.now = ""
	d.last = ""
}

// Pending reports whether a candidate is waiting for confirmation
func (d *Debouncer) Pending() bool {
	return d.hasPending
}

// Snapshot returns the current display values
func (d *Debouncer) Snapshot() Snapshot {
	s := Snapshot{Last: d.last, Now: d.now}
	if d.hasPending {
		s.Next = d.pending
	}

	return s
}

func (d *Debouncer) setPending(title string, at time.Time) {
	d.pending = title
	d.pendingSince = at
	d.hasPending = true
}

func (d *Debouncer) clearPending() {
	d.pending = ""
	d.pendingSince = time.Time{}
	d.hasPending = false
}
