// ABOUTME: In-process playback backend built on beep
// ABOUTME: Streams MP3 over HTTP (with ICY titles) or from local files to the speaker

package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// Audio output and volume curve
const (
	DefaultSampleRate   = beep.SampleRate(44100)
	SpeakerBufferSize   = 250 * time.Millisecond
	ResampleQuality     = 4
	NetworkBufferSize   = 64 * 1024
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
	DefaultUserAgent    = "retro-radio"
)

// Native decodes and plays streams itself
type Native struct {
	client     *http.Client
	userAgent  string
	sampleRate beep.SampleRate

	mu       sync.Mutex
	gen      int // bumped on every Open/Stop so callbacks from old streams are ignored
	status   Status
	volume   int
	muted    bool
	cancel   context.CancelFunc
	streamer beep.StreamSeekCloser
	gain     *effects.Volume

	// Titles arrive from the decoder under the speaker lock, so they never take mu
	titleMu  sync.Mutex
	titleGen int
	title    string
}

// NewNative initialises the audio device.
// It fails with ErrUnavailable when no output device can be opened.
func NewNative(userAgent string) (*Native, error) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	if err := speaker.Init(DefaultSampleRate, DefaultSampleRate.N(SpeakerBufferSize)); err != nil {
		return nil, fmt.Errorf("%w: audio output: %v", ErrUnavailable, err)
	}

	log.Debug().Int("rate", int(DefaultSampleRate)).Dur("buffer", SpeakerBufferSize).Msg("native: speaker initialized")

	return &Native{
		client: &http.Client{
			// No overall timeout: streams are long-lived
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				DisableCompression:    true,
			},
		},
		userAgent:  userAgent,
		sampleRate: DefaultSampleRate,
		volume:     100,
	}, nil
}

// Open stops the current stream and starts address
func (n *Native) Open(ctx context.Context, address string) error {
	if err := n.Stop(); err != nil {
		return err
	}

	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.resetTitle(gen)
	n.mu.Unlock()

	streamCtx, cancel := context.WithCancel(context.Background())

	// Cancelling the open request aborts connecting but not a stream that already started
	stopAfter := context.AfterFunc(ctx, cancel)
	defer stopAfter()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		title    string
		err      error
	)

	if path, ok := localPath(address); ok {
		streamer, format, title, err = n.openFile(path)
	} else {
		streamer, format, err = n.openHTTP(streamCtx, address, gen)
	}

	if err != nil {
		cancel()
		return err
	}

	if err := ctx.Err(); err != nil {
		cancel()
		_ = streamer.Close()

		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.gen {
		cancel()
		_ = streamer.Close()

		return context.Canceled
	}

	var source beep.Streamer = streamer
	if format.SampleRate != n.sampleRate {
		source = beep.Resample(ResampleQuality, format.SampleRate, n.sampleRate, streamer)
	}

	n.gain = &effects.Volume{
		Streamer: source,
		Base:     2,
		Volume:   percentToGain(n.volume),
		Silent:   n.muted || n.volume == 0,
	}
	n.streamer = streamer
	n.cancel = cancel
	n.status = Status{Playing: true}

	if title != "" {
		n.setTitle(gen, title)
	}

	speaker.Play(beep.Seq(n.gain, beep.Callback(func() {
		// Runs under the speaker lock; hand off so Stop can hold n.mu while clearing
		go n.ended(gen, streamer.Err())
	})))

	log.Debug().Str("address", address).Int("rate", int(format.SampleRate)).Msg("native: stream opened")

	return nil
}

func (n *Native) openFile(path string) (beep.StreamSeekCloser, beep.Format, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, "", fmt.Errorf("failed to open file: %w", err)
	}

	title := localTitle(f, path)

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, "", fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	return streamer, format, title, nil
}

func (n *Native) openHTTP(ctx context.Context, address string, gen int) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Icy-MetaData", "1")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to connect: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("stream returned status %s", resp.Status)
	}

	metaint, _ := strconv.Atoi(strings.TrimSpace(resp.Header.Get("icy-metaint")))
	log.Debug().Int("metaint", metaint).Str("content_type", resp.Header.Get("Content-Type")).Msg("native: connected")

	audio := newICYReader(bufio.NewReaderSize(resp.Body, NetworkBufferSize), metaint, func(title string) {
		n.setTitle(gen, title)
	})

	streamer, format, err := mp3.Decode(readCloser{Reader: audio, Closer: resp.Body})
	if err != nil {
		_ = resp.Body.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode stream: %w", err)
	}

	return streamer, format, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// resetTitle clears the title and binds it to gen; callers hold n.mu
func (n *Native) resetTitle(gen int) {
	n.titleMu.Lock()
	n.titleGen = gen
	n.title = ""
	n.titleMu.Unlock()
}

func (n *Native) setTitle(gen int, title string) {
	n.titleMu.Lock()
	defer n.titleMu.Unlock()

	if gen != n.titleGen {
		return
	}

	if title != n.title {
		log.Debug().Str("title", title).Msg("native: stream title")
	}

	n.title = title
}

// ended records the end of stream gen; a decode error beats the generic end marker
func (n *Native) ended(gen int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.gen {
		return
	}

	if err == nil {
		err = ErrStreamEnded
	}

	log.Debug().Err(err).Msg("native: stream finished")
	n.status = Status{Err: err}
}

// Stop halts playback and releases the stream
func (n *Native) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.gen++
	n.resetTitle(n.gen)
	n.status = Status{}

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}

	speaker.Clear()

	n.gain = nil

	if n.streamer != nil {
		err := n.streamer.Close()
		n.streamer = nil

		if err != nil {
			log.Debug().Err(err).Msg("native: close stream")
		}
	}

	return nil
}

// SetVolume sets the output gain
func (n *Native) SetVolume(percent int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.volume = clampPercent(percent)
	n.applyGain()

	return nil
}

// SetMute silences output without touching the volume
func (n *Native) SetMute(muted bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.muted = muted
	n.applyGain()

	return nil
}

// applyGain pushes volume and mute into the live stream; callers hold n.mu
func (n *Native) applyGain() {
	if n.gain == nil {
		return
	}

	speaker.Lock()
	n.gain.Volume = percentToGain(n.volume)
	n.gain.Silent = n.muted || n.volume == 0
	speaker.Unlock()
}

// CurrentTitle returns the latest title seen on the stream
func (n *Native) CurrentTitle() string {
	n.titleMu.Lock()
	defer n.titleMu.Unlock()

	return n.title
}

// Status reports playback state
func (n *Native) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.status
}

// Close stops playback
func (n *Native) Close() error {
	return n.Stop()
}

// percentToGain maps 0-100 onto a perceptual gain in base-2 exponent units
func percentToGain(percent int) float64 {
	if percent <= 0 {
		return MinVolumeDB
	}

	if percent >= 100 {
		return 0
	}

	adjusted := math.Pow(float64(percent)/100.0, VolumeCurveExponent)

	return (1.0 - adjusted) * MinVolumeDB
}
