// ABOUTME: Asynchronous front for the history store
// ABOUTME: Queues writes on a single worker so the UI loop never waits on disk

package history

import (
	"context"
	"time"

	"retro-radio/pool"
	"retro-radio/station"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// writeTimeout bounds a single queued write
const writeTimeout = 5 * time.Second

// Recorder queues history writes in order and tags them with a per-run session
type Recorder struct {
	store   *Store
	pool    *pool.WorkerPool
	session string
}

// NewRecorder wraps store; the recorder owns it from now on
func NewRecorder(store *Store) *Recorder {
	return &Recorder{
		store:   store,
		pool:    pool.NewWorkerPool(1, 64),
		session: uuid.NewString(),
	}
}

// Session identifies this run in the stored entries
func (r *Recorder) Session() string {
	return r.session
}

// Record queues a confirmed title. Failures are logged, never returned.
func (r *Recorder) Record(st station.Station, title string, at time.Time) {
	e := Entry{
		Session:        r.session,
		StationName:    st.Name,
		StationAddress: st.Address,
		Title:          title,
		PlayedAt:       at,
	}

	accepted := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if _, err := r.store.Record(ctx, e); err != nil {
			log.Warn().Err(err).Str("title", title).Msg("history: record failed")
		}
	})

	if !accepted {
		log.Debug().Str("title", title).Msg("history: dropped after close")
	}
}

// Recent reads the newest entries after every queued write has landed
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	type result struct {
		entries []Entry
		err     error
	}

	done := make(chan result, 1)

	accepted := r.pool.Submit(func() {
		entries, err := r.store.Recent(ctx, limit)
		done <- result{entries, err}
	})
	if !accepted {
		return nil, ErrClosed
	}

	select {
	case res := <-done:
		return res.entries, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close drains queued writes and closes the store
func (r *Recorder) Close() error {
	r.pool.Close()
	return r.store.Close()
}
