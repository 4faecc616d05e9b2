// ABOUTME: Playback backend that drives a Music Player Daemon
// ABOUTME: Commands use short-lived connections; an idle watcher keeps title/status cached

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// Default MPD endpoint
const (
	DefaultMPDNetwork = "tcp"
	DefaultMPDAddress = "localhost:6600"
)

// mpdWatchRetry is how long the watcher loop waits before re-dialling a dropped idle connection
const mpdWatchRetry = 2 * time.Second

// MPD plays streams through a running MPD instance
type MPD struct {
	network  string
	address  string
	password string

	mu      sync.Mutex
	title   string
	status  Status
	volume  int
	muted   bool
	opened  bool
	seq     int // bumped on open and stop; refreshes started under an older seq are dropped
	closing chan struct{}
	wg      sync.WaitGroup
	watcher *mpd.Watcher
}

// NewMPD connects to MPD and starts watching player events.
// It fails with ErrUnavailable when the daemon does not answer.
func NewMPD(network, address, password string) (*MPD, error) {
	if network == "" {
		network = DefaultMPDNetwork
	}

	if address == "" {
		address = DefaultMPDAddress
	}

	m := &MPD{
		network:  network,
		address:  address,
		password: password,
		volume:   -1,
		closing:  make(chan struct{}),
	}

	if err := m.do(func(c *mpd.Client) error { return c.Ping() }); err != nil {
		return nil, fmt.Errorf("%w: mpd at %s/%s: %v", ErrUnavailable, network, address, err)
	}

	watcher, err := mpd.NewWatcher(network, address, password, "player", "mixer")
	if err != nil {
		return nil, fmt.Errorf("%w: mpd watcher: %v", ErrUnavailable, err)
	}

	m.watcher = watcher

	m.wg.Add(1)

	go m.watch()

	return m, nil
}

// dial opens a command connection
func (m *MPD) dial() (*mpd.Client, error) {
	if m.password != "" {
		return mpd.DialAuthenticated(m.network, m.address, m.password)
	}

	return mpd.Dial(m.network, m.address)
}

// do runs fn on a fresh connection so idle timeouts on the daemon side never bite
func (m *MPD) do(fn func(c *mpd.Client) error) error {
	c, err := m.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to mpd: %w", err)
	}

	defer func() {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Msg("mpd: close failed")
		}
	}()

	return fn(c)
}

// Open replaces the queue with address and starts playing it
func (m *MPD) Open(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.title = ""
	m.status = Status{}
	m.opened = false
	m.mu.Unlock()

	err := m.do(func(c *mpd.Client) error {
		// A failure from an earlier stream would otherwise stick to the status
		if err := c.Command("clearerror").OK(); err != nil {
			return fmt.Errorf("failed to clear error: %w", err)
		}

		if err := c.Clear(); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}

		if err := c.Add(address); err != nil {
			return fmt.Errorf("failed to add stream: %w", err)
		}

		// A newer Open may have been requested while we were talking to the daemon
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.Play(-1); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.opened = true
	m.seq++
	m.mu.Unlock()

	log.Debug().Str("address", address).Msg("mpd: stream opened")
	m.refresh()

	return nil
}

// Stop halts playback
func (m *MPD) Stop() error {
	m.mu.Lock()
	m.opened = false
	m.seq++
	m.title = ""
	m.status = Status{}
	m.mu.Unlock()

	if err := m.do(func(c *mpd.Client) error { return c.Stop() }); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// SetVolume sets the mixer volume; while muted the value is only remembered
func (m *MPD) SetVolume(percent int) error {
	percent = clampPercent(percent)

	m.mu.Lock()
	m.volume = percent
	muted := m.muted
	m.mu.Unlock()

	if muted {
		return nil
	}

	return m.setMixer(percent)
}

// SetMute drives the mixer to zero and back; MPD has no mute command
func (m *MPD) SetMute(muted bool) error {
	m.mu.Lock()
	m.muted = muted
	volume := m.volume
	m.mu.Unlock()

	if muted {
		return m.setMixer(0)
	}

	if volume < 0 {
		return nil
	}

	return m.setMixer(volume)
}

func (m *MPD) setMixer(percent int) error {
	err := m.do(func(c *mpd.Client) error { return c.SetVolume(percent) })
	if err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	return nil
}

// CurrentTitle returns the cached stream title
func (m *MPD) CurrentTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.title
}

// Status returns the cached player status
func (m *MPD) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// Close stops the watcher; playback is left to the caller to stop
func (m *MPD) Close() error {
	select {
	case <-m.closing:
		return nil
	default:
	}

	close(m.closing)

	err := m.watcher.Close()
	m.wg.Wait()

	return err
}

// watch refreshes the cache whenever MPD reports a player change
func (m *MPD) watch() {
	defer m.wg.Done()

	for {
		select {
		case <-m.closing:
			return

		case subsystem, ok := <-m.watcher.Event:
			if !ok {
				return
			}

			log.Debug().Str("subsystem", subsystem).Msg("mpd: event")
			m.refresh()

		case err, ok := <-m.watcher.Error:
			if !ok {
				return
			}

			log.Warn().Err(err).Msg("mpd: watcher error")

			select {
			case <-m.closing:
				return
			case <-time.After(mpdWatchRetry):
			}
		}
	}
}

// refresh reads the current song and player state into the cache
func (m *MPD) refresh() {
	m.mu.Lock()
	seq := m.seq
	m.mu.Unlock()

	var song, status mpd.Attrs

	err := m.do(func(c *mpd.Client) error {
		var err error

		if song, err = c.CurrentSong(); err != nil {
			return err
		}

		status, err = c.Status()

		return err
	})
	if err != nil {
		log.Debug().Err(err).Msg("mpd: refresh failed")

		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.opened || seq != m.seq {
		return
	}

	m.title = songTitle(song)
	m.status = mpdStatus(status)
}

// songTitle picks the stream title from a currentsong response
func songTitle(song mpd.Attrs) string {
	title := strings.TrimSpace(song["Title"])
	artist := strings.TrimSpace(song["Artist"])

	if title != "" && artist != "" {
		return artist + " - " + title
	}

	return title
}

// mpdStatus converts a status response into a Status
func mpdStatus(status mpd.Attrs) Status {
	s := Status{Playing: status["state"] == "play"}

	if msg := strings.TrimSpace(status["error"]); msg != "" {
		s.Err = errors.New(msg)
		s.Playing = false
	} else if status["state"] == "stop" {
		s.Err = ErrStreamEnded
	}

	return s
}
