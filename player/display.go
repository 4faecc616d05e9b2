// ABOUTME: Render-ready view of the controller state
// ABOUTME: Collapses station, debouncer and mixer state into display fields

package player

import (
	"time"

	"retro-radio/station"
)

// Display is everything the UI needs to draw one frame
type Display struct {
	Station    station.Station
	HasStation bool
	Index      int // 0-based position of Station
	Count      int
	Last       string
	Now        string
	Next       string
	Playing    bool
	Tuning     bool // playing but no title committed yet
	Volume     int
	Muted      bool
	Elapsed    time.Duration
	Err        error
}

// Display returns the current display state
func (c *Controller) Display() Display {
	snap := c.deb.Snapshot()

	d := Display{
		Index:   c.state.Cursor,
		Count:   len(c.state.Stations),
		Last:    snap.Last,
		Now:     snap.Now,
		Next:    snap.Next,
		Playing: c.state.Playing,
		Tuning:  c.state.Playing && snap.Now == "",
		Volume:  c.state.Volume,
		Muted:   c.state.Muted,
		Err:     c.state.LastErr,
	}

	d.Station, d.HasStation = c.current()

	if c.opened && !c.tunedAt.IsZero() {
		d.Elapsed = c.clock().Sub(c.tunedAt)
	}

	return d
}
