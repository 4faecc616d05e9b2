// ABOUTME: Playback controller owning the application state
// ABOUTME: Drives the engine, the station cursor and the metadata debouncer

// Package player turns user intent (play, stop, next, volume) into engine
// commands and feeds polled stream titles through the debouncer.
//
// The Controller is not safe for concurrent use. It is owned by the UI event
// loop; engine calls that may block on the network are handed back to the
// caller as a Connect to be run elsewhere, and their outcome is delivered
// back through HandleOpen.
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retro-radio/config"
	"retro-radio/debounce"
	"retro-radio/engine"
	"retro-radio/station"

	"github.com/rs/zerolog/log"
)

// ErrNoStation is returned when an action needs a station and the catalog is empty
var ErrNoStation = errors.New("no station selected")

// State is the explicit application state shared with the UI
type State struct {
	Stations []station.Station
	Cursor   int
	Volume   int
	Muted    bool
	Playing  bool
	LastErr  error
}

// OpenResult is the outcome of running a Connect
type OpenResult struct {
	Epoch   int
	Address string
	Err     error
}

// Connect is a pending stream open. Run performs the blocking engine call
// and must not touch the Controller; pass its result to HandleOpen.
type Connect struct {
	Epoch   int
	Address string
	Run     func(ctx context.Context) OpenResult
}

// Pending reports whether there is anything to run
func (c Connect) Pending() bool {
	return c.Run != nil
}

// CommitHook is called on every confirmed title change
type CommitHook func(st station.Station, title string, at time.Time)

// Option configures a Controller
type Option func(*Controller)

// WithClock overrides the time source used for elapsed play time
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.clock = now
	}
}

// WithCommitHook registers fn to be called when a title is committed
func WithCommitHook(fn CommitHook) Option {
	return func(c *Controller) {
		c.onCommit = fn
	}
}

// Controller coordinates the engine, station cursor and debouncer
type Controller struct {
	eng      engine.Engine
	state    State
	deb      *debounce.Debouncer
	epoch    int
	opened   bool // the engine confirmed the open for the current epoch
	tunedAt  time.Time
	clock    func() time.Time
	onCommit CommitHook
}

// New creates a stopped Controller. The cursor starts on the settings' last
// station when it is still in the list, otherwise on the first station.
func New(eng engine.Engine, stations []station.Station, s config.Settings, opts ...Option) *Controller {
	c := &Controller{
		eng: eng,
		state: State{
			Stations: stations,
			Volume:   config.ClampVolume(s.Volume),
		},
		deb:   debounce.New(debounce.DefaultInterval),
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if idx := station.IndexOf(stations, s.LastStation); idx >= 0 {
		c.state.Cursor = idx
	}

	if st, ok := c.current(); ok {
		c.deb.SetInterval(st.Debounce)
	}

	return c
}

// State returns a copy of the application state; the station slice is shared
func (c *Controller) State() State {
	return c.state
}

// Epoch identifies the current playback session. It changes on every
// play, stop and station switch so stale ticks and results can be dropped.
func (c *Controller) Epoch() int {
	return c.epoch
}

func (c *Controller) current() (station.Station, bool) {
	if len(c.state.Stations) == 0 {
		return station.Station{}, false
	}

	return c.state.Stations[c.state.Cursor], true
}

// Play starts the station under the cursor
func (c *Controller) Play() (Connect, error) {
	st, ok := c.current()
	if !ok {
		return Connect{}, ErrNoStation
	}

	c.reset()
	c.deb.SetInterval(st.Debounce)
	c.state.Playing = true
	c.state.LastErr = nil

	epoch := c.epoch
	eng := c.eng
	address := st.Address

	log.Info().Str("station", st.Name).Int("epoch", epoch).Msg("Tuning")

	return Connect{
		Epoch:   epoch,
		Address: address,
		Run: func(ctx context.Context) OpenResult {
			return OpenResult{Epoch: epoch, Address: address, Err: eng.Open(ctx, address)}
		},
	}, nil
}

// Stop halts playback and clears all title state
func (c *Controller) Stop() error {
	c.reset()
	c.state.Playing = false

	if err := c.eng.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// Toggle stops when playing and plays when stopped
func (c *Controller) Toggle() (Connect, error) {
	if c.state.Playing {
		return Connect{}, c.Stop()
	}

	return c.Play()
}

// Next moves to the following station, wrapping to the first
func (c *Controller) Next() (Connect, error) {
	return c.step(1)
}

// Previous moves to the preceding station, wrapping to the last
func (c *Controller) Previous() (Connect, error) {
	return c.step(-1)
}

func (c *Controller) step(delta int) (Connect, error) {
	n := len(c.state.Stations)
	if n == 0 {
		return Connect{}, ErrNoStation
	}

	c.state.Cursor = ((c.state.Cursor+delta)%n + n) % n

	return c.switchStation()
}

// Select moves the cursor to station i and starts it
func (c *Controller) Select(i int) (Connect, error) {
	if len(c.state.Stations) == 0 {
		return Connect{}, ErrNoStation
	}

	if i < 0 || i >= len(c.state.Stations) {
		return Connect{}, fmt.Errorf("station %d out of range (1-%d)", i+1, len(c.state.Stations))
	}

	if i == c.state.Cursor && c.state.Playing {
		return Connect{}, nil
	}

	c.state.Cursor = i

	return c.Play()
}

// switchStation restarts playback on the new cursor if something was playing.
// While stopped only the cursor moves.
func (c *Controller) switchStation() (Connect, error) {
	if c.state.Playing {
		return c.Play()
	}

	c.reset()

	if st, ok := c.current(); ok {
		c.deb.SetInterval(st.Debounce)
	}

	return Connect{}, nil
}

// reset invalidates the running session: outstanding polls and opens become stale
func (c *Controller) reset() {
	c.epoch++
	c.opened = false
	c.tunedAt = time.Time{}
	c.deb.Reset()
}

// HandleOpen applies the outcome of a Connect. Results from an older epoch are ignored.
func (c *Controller) HandleOpen(res OpenResult) error {
	if res.Epoch != c.epoch {
		log.Debug().Int("epoch", res.Epoch).Int("current", c.epoch).Msg("Dropping stale open result")

		// A late open that still succeeded must not keep playing after a stop
		if res.Err == nil && !c.state.Playing {
			if err := c.eng.Stop(); err != nil {
				log.Warn().Err(err).Msg("Failed to stop stale stream")
			}
		}

		return nil
	}

	st, _ := c.current()

	if res.Err != nil {
		c.reset()
		c.state.Playing = false
		c.state.LastErr = fmt.Errorf("failed to play %s: %w", st.Name, res.Err)

		log.Error().Err(res.Err).Str("station", st.Name).Msg("Open failed")

		return c.state.LastErr
	}

	c.opened = true
	c.tunedAt = c.clock()

	log.Info().Str("station", st.Name).Msg("Playing")

	return c.applyMixer()
}

// applyMixer pushes the current volume and mute state to the engine
func (c *Controller) applyMixer() error {
	var errs []error

	if err := c.eng.SetVolume(c.state.Volume); err != nil {
		errs = append(errs, fmt.Errorf("failed to set volume: %w", err))
	}

	if err := c.eng.SetMute(c.state.Muted); err != nil {
		errs = append(errs, fmt.Errorf("failed to set mute: %w", err))
	}

	return errors.Join(errs...)
}

// Poll samples the engine for the session identified by epoch.
// Stale epochs and sessions whose open is still in flight are no-ops.
// A playback failure stops the session and is returned.
func (c *Controller) Poll(epoch int, now time.Time) (Display, error) {
	if epoch != c.epoch || !c.state.Playing || !c.opened {
		return c.Display(), nil
	}

	st, _ := c.current()

	if status := c.eng.Status(); status.Err != nil {
		c.reset()
		c.state.Playing = false
		c.state.LastErr = fmt.Errorf("playback of %s stopped: %w", st.Name, status.Err)

		log.Error().Err(status.Err).Str("station", st.Name).Msg("Playback failed")

		if err := c.eng.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop engine after failure")
		}

		return c.Display(), c.state.LastErr
	}

	before := c.deb.Snapshot()
	after := c.deb.Observe(c.eng.CurrentTitle(), now)

	if after.Now != before.Now && after.Now != "" {
		log.Info().Str("station", st.Name).Str("title", after.Now).Msg("Now playing")

		if c.onCommit != nil {
			c.onCommit(st, after.Now, now)
		}
	}

	return c.Display(), nil
}

// SetVolume sets the volume, clamped to 0-100
func (c *Controller) SetVolume(v int) error {
	c.state.Volume = config.ClampVolume(v)

	if err := c.eng.SetVolume(c.state.Volume); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	return nil
}

// AdjustVolume changes the volume by delta
func (c *Controller) AdjustVolume(delta int) error {
	return c.SetVolume(c.state.Volume + delta)
}

// ToggleMute flips the mute state
func (c *Controller) ToggleMute() error {
	c.state.Muted = !c.state.Muted

	if err := c.eng.SetMute(c.state.Muted); err != nil {
		c.state.Muted = !c.state.Muted
		return fmt.Errorf("failed to toggle mute: %w", err)
	}

	return nil
}

// ReplaceStations swaps in a reloaded catalog. The current station is kept
// when its address is still listed; otherwise playback stops and the
// cursor is clamped into the new list.
func (c *Controller) ReplaceStations(stations []station.Station) error {
	cur, hadStation := c.current()
	c.state.Stations = stations

	if hadStation {
		if idx := station.IndexOf(stations, cur.Address); idx >= 0 {
			c.state.Cursor = idx
			c.deb.SetInterval(stations[idx].Debounce)

			return nil
		}
	}

	if c.state.Cursor >= len(stations) {
		c.state.Cursor = max(len(stations)-1, 0)
	}

	if st, ok := c.current(); ok {
		c.deb.SetInterval(st.Debounce)
	}

	if c.state.Playing {
		return c.Stop()
	}

	c.reset()

	return nil
}

// Settings returns the preferences to persist
func (c *Controller) Settings() config.Settings {
	s := config.Settings{Volume: c.state.Volume}

	if st, ok := c.current(); ok {
		s.LastStation = st.Address
	}

	return s
}

// Shutdown stops playback; the engine itself is closed by its owner
func (c *Controller) Shutdown() error {
	if !c.state.Playing && !c.opened {
		return nil
	}

	return c.Stop()
}
