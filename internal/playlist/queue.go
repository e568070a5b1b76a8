// Package playlist owns the play queue: the ordered tracks, the renderer
// sources built from them and the cursor pointing at the current entry.
package playlist

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

// SourceFactory builds a renderer source for a track.
type SourceFactory interface {
	NewSource(t track.Track) player.Source
}

// Bus is the part of the bus fabric the queue talks to.
type Bus interface {
	Send(c bus.Command)
	Emit(e bus.Event)
}

// Queue is the play queue. tracks and sources are kept the same length
// by every mutation; current is -1 until playback starts, meaning the
// first entry.
//
// Mutations are made by the playback controller only. The renderer reads
// the queue concurrently through the player.Playlist methods.
type Queue struct {
	mu      sync.RWMutex
	tracks  []track.Track
	sources []player.Source
	current int

	store   state.Store
	factory SourceFactory
	bus     Bus
	logger  zerolog.Logger
}

// NewQueue creates a queue and restores it from store.
func NewQueue(store state.Store, factory SourceFactory, b Bus, logger zerolog.Logger) *Queue {
	q := &Queue{
		current: -1,
		store:   store,
		factory: factory,
		bus:     b,
		logger:  logger.With().Str("component", "queue").Logger(),
	}
	q.restore()
	return q
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tracks)
}

// Source returns the renderer source at index, or nil if out of range.
func (q *Queue) Source(index int) player.Source {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if index < 0 || index >= len(q.sources) {
		return nil
	}
	return q.sources[index]
}

// IndexOf returns the position of s, or -1.
func (q *Queue) IndexOf(s player.Source) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i, src := range q.sources {
		if src == s {
			return i
		}
	}
	return -1
}

// Tracks returns a copy of the queued tracks with Current set on the
// current entry.
func (q *Queue) Tracks() []track.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]track.Track, len(q.tracks))
	copy(out, q.tracks)
	if i := q.effectiveCursor(); i >= 0 {
		out[i].Current = true
	}
	return out
}

// Track returns a copy of the track at index, or nil if out of range.
func (q *Queue) Track(index int) *track.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	t := q.tracks[index]
	return &t
}

// Current returns the current track, the first one if playback has not
// started, or nil if the queue is empty.
func (q *Queue) Current() *track.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	i := q.effectiveCursor()
	if i < 0 {
		return nil
	}
	t := q.tracks[i]
	t.Current = true
	return &t
}

// CurrentIndex returns the raw cursor, -1 if playback has not started.
func (q *Queue) CurrentIndex() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// SetCurrentIndex moves the cursor and persists it. Out of range indexes
// are ignored.
func (q *Queue) SetCurrentIndex(index int) bool {
	q.mu.Lock()
	if index < 0 || index >= len(q.tracks) {
		q.mu.Unlock()
		return false
	}
	changed := q.current != index
	q.current = index
	q.mu.Unlock()

	if changed {
		q.persistCursor()
	}
	return true
}

// IsLast reports whether the effective cursor points at the last entry.
func (q *Queue) IsLast() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tracks) > 0 && q.effectiveCursor() == len(q.tracks)-1
}

// effectiveCursor resolves -1 to the first entry. Callers hold mu.
func (q *Queue) effectiveCursor() int {
	if len(q.tracks) == 0 {
		return -1
	}
	if q.current < 0 {
		return 0
	}
	return min(q.current, len(q.tracks)-1)
}

// Verify Queue implements player.Playlist at compile time.
var _ player.Playlist = (*Queue)(nil)
