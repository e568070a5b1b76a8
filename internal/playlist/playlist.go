package playlist

import (
	"math/rand/v2"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

// Replace discards the queue, builds a source for every track and sets
// the cursor to start.
func (q *Queue) Replace(tracks []track.Track, start int) {
	q.mu.Lock()
	q.tracks = make([]track.Track, len(tracks))
	copy(q.tracks, tracks)
	q.sources = q.buildSources(q.tracks)
	switch {
	case len(q.tracks) == 0:
		q.current = -1
	case start < 0 || start >= len(q.tracks):
		q.current = 0
	default:
		q.current = start
	}
	q.mu.Unlock()

	q.changed()
}

// Append adds tracks that are not already queued. The cursor is left
// untouched.
func (q *Queue) Append(tracks []track.Track) int {
	q.mu.Lock()
	added := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if track.IndexOf(q.tracks, t.ID) >= 0 || track.IndexOf(added, t.ID) >= 0 {
			continue
		}
		added = append(added, t)
	}
	if len(added) == 0 {
		q.mu.Unlock()
		return 0
	}
	q.tracks = append(q.tracks, added...)
	q.sources = append(q.sources, q.buildSources(added)...)
	q.mu.Unlock()

	q.changed()
	return len(added)
}

// InsertNext places t right after the current entry. A track already in
// the queue is relocated there instead of duplicated.
func (q *Queue) InsertNext(t track.Track) {
	q.mu.Lock()
	cur := q.effectiveCursor()
	pos := track.IndexOf(q.tracks, t.ID)

	switch {
	case pos < 0:
		at := cur + 1
		src := q.factory.NewSource(t)
		q.tracks = insertAt(q.tracks, at, t)
		q.sources = insertAt(q.sources, at, src)
	case pos == cur || pos == cur+1:
		q.mu.Unlock()
		return
	case pos < cur:
		// Removing pos shifts the cursor down by one.
		q.moveLocked(pos, cur)
	default:
		q.moveLocked(pos, cur+1)
	}
	q.mu.Unlock()

	q.changed()
}

// Remove drops t from the queue. Removing the current entry while others
// remain first asks the controller to advance.
func (q *Queue) Remove(t track.Track) bool {
	q.mu.Lock()
	idx := track.IndexOf(q.tracks, t.ID)
	if idx < 0 {
		q.mu.Unlock()
		return false
	}

	if idx == q.current && len(q.tracks) > 1 {
		q.bus.Send(bus.NextTrack{})
	}

	q.tracks = removeAt(q.tracks, idx)
	q.sources = removeAt(q.sources, idx)
	switch {
	case len(q.tracks) == 0:
		q.current = -1
	case idx < q.current:
		q.current--
	case q.current >= len(q.tracks):
		q.current = len(q.tracks) - 1
	}
	q.mu.Unlock()

	q.changed()
	return true
}

// Move relocates the entry at from to to, keeping the relative order of
// everything else. The cursor follows the entry it pointed at.
func (q *Queue) Move(from, to int) bool {
	q.mu.Lock()
	n := len(q.tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		q.mu.Unlock()
		return false
	}
	if from == to {
		q.mu.Unlock()
		return true
	}
	q.moveLocked(from, to)
	q.mu.Unlock()

	q.changed()
	return true
}

func (q *Queue) moveLocked(from, to int) {
	moveItem(q.tracks, from, to)
	moveItem(q.sources, from, to)

	switch {
	case q.current == from:
		q.current = to
	case from < q.current && q.current <= to:
		q.current--
	case to <= q.current && q.current < from:
		q.current++
	}
}

// Shuffle randomizes the queue. The current entry moves to the front and
// keeps its source so the renderer does not reload it.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	if len(q.tracks) < 2 {
		q.mu.Unlock()
		return
	}

	if q.current < 0 {
		rand.Shuffle(len(q.tracks), func(i, j int) {
			q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
		})
		q.sources = q.buildSources(q.tracks)
		q.mu.Unlock()
		q.changed()
		return
	}

	cur := q.effectiveCursor()
	head, headSrc := q.tracks[cur], q.sources[cur]

	rest := make([]track.Track, 0, len(q.tracks)-1)
	rest = append(rest, q.tracks[:cur]...)
	rest = append(rest, q.tracks[cur+1:]...)
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	q.tracks = append([]track.Track{head}, rest...)
	q.sources = append([]player.Source{headSrc}, q.buildSources(rest)...)
	q.current = 0
	q.mu.Unlock()

	q.changed()
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.tracks = nil
	q.sources = nil
	q.current = -1
	q.mu.Unlock()

	q.changed()
}

// UpdateTrack replaces the stored copy of t, keeping its source. Used to
// refresh presentation flags such as Favorite.
func (q *Queue) UpdateTrack(t track.Track) bool {
	q.mu.Lock()
	idx := track.IndexOf(q.tracks, t.ID)
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.tracks[idx] = t
	q.mu.Unlock()

	q.changed()
	return true
}

// changed persists the queue and announces it.
func (q *Queue) changed() {
	q.persist()
	q.bus.Emit(bus.QueueChanged{})
}

// buildSources creates one source per track. Callers hold mu.
func (q *Queue) buildSources(tracks []track.Track) []player.Source {
	out := make([]player.Source, len(tracks))
	for i, t := range tracks {
		out[i] = q.factory.NewSource(t)
	}
	return out
}

func insertAt[T any](s []T, at int, v T) []T {
	at = max(0, min(at, len(s)))
	var zero T
	s = append(s, zero)
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}

func removeAt[T any](s []T, at int) []T {
	copy(s[at:], s[at+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}

// moveItem shifts the elements between from and to by one and drops the
// element at from into to.
func moveItem[T any](s []T, from, to int) {
	item := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = item
}
