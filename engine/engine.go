// ABOUTME: Boundary to the audio playback engine and backend selection
// ABOUTME: Engines open streams, control volume/mute and expose the raw stream title

// Package engine wraps the audio playback backends the radio can drive.
// Two backends exist: an MPD client (the daemon does the streaming) and a
// native in-process player built on beep. Both answer title and status
// queries from memory so the UI loop never waits on the network.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Kind names a playback backend
type Kind string

// Supported backends
const (
	KindMPD    Kind = "mpd"
	KindNative Kind = "native"
)

var (
	// ErrUnavailable means the playback backend could not be reached at startup
	ErrUnavailable = errors.New("playback engine unavailable")

	// ErrUnknownKind is returned for an unsupported backend name
	ErrUnknownKind = errors.New("unknown playback engine")

	// ErrStreamEnded is reported when a stream stops on its own
	ErrStreamEnded = errors.New("stream ended")
)

// Engine is the command surface of a playback backend.
// Implementations must be safe for concurrent use: Open runs off the UI loop.
type Engine interface {
	// Open stops whatever is playing and starts the stream at address
	Open(ctx context.Context, address string) error
	// Stop halts playback; stopping an idle engine is not an error
	Stop() error
	// SetVolume sets the output volume in percent (0-100)
	SetVolume(percent int) error
	// SetMute silences or restores output without losing the volume
	SetMute(muted bool) error
	// CurrentTitle returns the latest raw stream title, or "" when unknown
	CurrentTitle() string
	// Status reports whether audio is flowing and the last playback failure
	Status() Status
	// Close releases the backend
	Close() error
}

// Status is a point-in-time view of the engine
type Status struct {
	Playing bool
	Err     error // Set when playback failed after Open returned
}

// Options selects and configures a backend
type Options struct {
	Kind       Kind
	MPDNetwork string // "tcp" or "unix"
	MPDAddress string // host:port or socket path
	MPDPass    string
	UserAgent  string
}

// New creates the backend described by opts.
// Errors wrap ErrUnavailable when the backend exists but cannot be used.
func New(opts Options) (Engine, error) {
	switch opts.Kind {
	case KindMPD:
		return NewMPD(opts.MPDNetwork, opts.MPDAddress, opts.MPDPass)
	case KindNative, "":
		return NewNative(opts.UserAgent)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}

// clampPercent limits a volume to 0-100
func clampPercent(v int) int {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
