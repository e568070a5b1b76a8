package playlist

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

type fakeSource struct{ id int }

func (s *fakeSource) Open(context.Context) (io.ReadCloser, error) { return nil, io.EOF }
func (s *fakeSource) MimeType() string                            { return "audio/mpeg" }
func (s *fakeSource) String() string                              { return fmt.Sprintf("track-%d", s.id) }

type fakeFactory struct{ built int }

func (f *fakeFactory) NewSource(t track.Track) player.Source {
	f.built++
	return &fakeSource{id: t.ID}
}

type harness struct {
	q        *Queue
	store    *state.Mock
	factory  *fakeFactory
	fabric   *bus.Fabric
	events   *bus.Subscription[bus.Event]
	commands *bus.Subscription[bus.Command]
}

func newHarness(t *testing.T, store *state.Mock) *harness {
	t.Helper()
	if store == nil {
		store = state.NewMock()
	}
	f := bus.New()
	t.Cleanup(f.Close)
	h := &harness{
		store:    store,
		factory:  &fakeFactory{},
		fabric:   f,
		events:   f.Events.Subscribe(),
		commands: f.Commands.Subscribe(),
	}
	h.q = NewQueue(store, h.factory, f, zerolog.Nop())
	return h
}

func tracks(ids ...int) []track.Track {
	out := make([]track.Track, len(ids))
	for i, id := range ids {
		out[i] = track.Track{ID: id, Title: fmt.Sprintf("T%d", id)}
	}
	return out
}

func ids(ts []track.Track) []int {
	return track.IDs(ts)
}

func drainQueueChanged(h *harness) int {
	n := 0
	for {
		select {
		case e := <-h.events.C:
			if _, ok := e.(bus.QueueChanged); ok {
				n++
			}
		default:
			return n
		}
	}
}

func drainNextTrack(h *harness) int {
	n := 0
	for {
		select {
		case c := <-h.commands.C:
			if _, ok := c.(bus.NextTrack); ok {
				n++
			}
		default:
			return n
		}
	}
}

// checkParallel asserts tracks and sources stay in lockstep.
func checkParallel(t *testing.T, q *Queue) {
	t.Helper()
	ts := q.Tracks()
	require.Equal(t, len(ts), q.Len())
	for i, tr := range ts {
		src, ok := q.Source(i).(*fakeSource)
		require.True(t, ok, "source %d missing", i)
		assert.Equal(t, tr.ID, src.id, "source %d does not match its track", i)
	}
}

func TestNewQueue_Empty(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, 0, h.q.Len())
	assert.Equal(t, -1, h.q.CurrentIndex())
	assert.Nil(t, h.q.Current())
	assert.Nil(t, h.q.Source(0))
}

func TestReplace_CurrentIsFirstAndEmitsOnce(t *testing.T) {
	h := newHarness(t, nil)

	h.q.Replace(tracks(1, 2, 3), 0)

	require.NotNil(t, h.q.Current())
	assert.Equal(t, 1, h.q.Current().ID)
	assert.Equal(t, 1, drainQueueChanged(h))
	assert.Equal(t, 3, h.factory.built)
	checkParallel(t, h.q)
}

func TestReplace_StartIndex(t *testing.T) {
	h := newHarness(t, nil)

	h.q.Replace(tracks(1, 2, 3), 2)
	assert.Equal(t, 2, h.q.CurrentIndex())

	h.q.Replace(tracks(4, 5), 9)
	assert.Equal(t, 0, h.q.CurrentIndex(), "out of range start falls back to 0")

	h.q.Replace(nil, 0)
	assert.Equal(t, -1, h.q.CurrentIndex())
}

func TestCurrent_DefaultsToFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Append(tracks(7, 8))

	assert.Equal(t, -1, h.q.CurrentIndex())
	require.NotNil(t, h.q.Current())
	assert.Equal(t, 7, h.q.Current().ID)
	assert.True(t, h.q.Current().Current)
}

func TestAppend_SkipsDuplicates(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2), 1)
	h.factory.built = 0

	added := h.q.Append(tracks(2, 3, 3, 4))

	assert.Equal(t, 2, added)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(h.q.Tracks()))
	assert.Equal(t, 2, h.factory.built, "sources built only for new tracks")
	assert.Equal(t, 1, h.q.CurrentIndex())
	checkParallel(t, h.q)
}

func TestAppend_NothingNew(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1), 0)
	drainQueueChanged(h)

	assert.Equal(t, 0, h.q.Append(tracks(1)))
	assert.Equal(t, 0, drainQueueChanged(h))
}

func TestInsertNext_NewTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3), 1)

	h.q.InsertNext(track.Track{ID: 9})

	assert.Equal(t, []int{1, 2, 9, 3}, ids(h.q.Tracks()))
	assert.Equal(t, 1, h.q.CurrentIndex())
	checkParallel(t, h.q)
}

func TestInsertNext_NotStarted(t *testing.T) {
	h := newHarness(t, nil)

	h.q.InsertNext(track.Track{ID: 1})
	assert.Equal(t, []int{1}, ids(h.q.Tracks()))

	h.q.InsertNext(track.Track{ID: 2})
	assert.Equal(t, []int{1, 2}, ids(h.q.Tracks()), "inserted after the track that would play")
	assert.Equal(t, -1, h.q.CurrentIndex())
}

func TestInsertNext_RelocatesExisting(t *testing.T) {
	tests := []struct {
		name    string
		current int
		id      int
		want    []int
	}{
		{"after cursor", 1, 5, []int{1, 2, 5, 3, 4}},
		{"before cursor", 3, 1, []int{2, 3, 4, 1, 5}},
		{"already next", 1, 3, []int{1, 2, 3, 4, 5}},
		{"is current", 2, 3, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.q.Replace(tracks(1, 2, 3, 4, 5), tt.current)
			cur := h.q.Current().ID

			h.q.InsertNext(track.Track{ID: tt.id})

			got := h.q.Tracks()
			assert.Equal(t, tt.want, ids(got))
			assert.Len(t, got, 5, "no duplicate created")
			assert.Equal(t, cur, h.q.Current().ID, "current track unchanged")
			if tt.id != cur {
				assert.Equal(t, tt.id, got[h.q.CurrentIndex()+1].ID)
			}
			checkParallel(t, h.q)
		})
	}
}

func TestRemove_CurrentIssuesNextTrackOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3), 1)
	drainNextTrack(h)

	require.True(t, h.q.Remove(track.Track{ID: 2}))

	assert.Equal(t, 1, drainNextTrack(h))
	assert.Equal(t, []int{1, 3}, ids(h.q.Tracks()))
	assert.Equal(t, 3, h.q.Current().ID)
	checkParallel(t, h.q)
}

func TestRemove_LastRemaining(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1), 0)

	require.True(t, h.q.Remove(track.Track{ID: 1}))

	assert.Equal(t, 0, drainNextTrack(h))
	assert.Nil(t, h.q.Current())
	assert.Equal(t, -1, h.q.CurrentIndex())
}

func TestRemove_BeforeCursorKeepsCurrent(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3, 4), 2)

	require.True(t, h.q.Remove(track.Track{ID: 1}))

	assert.Equal(t, 1, h.q.CurrentIndex())
	assert.Equal(t, 3, h.q.Current().ID)
	assert.Equal(t, 0, drainNextTrack(h))
}

func TestRemove_CurrentAtEndClamps(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3), 2)

	require.True(t, h.q.Remove(track.Track{ID: 3}))
	assert.Equal(t, 1, h.q.CurrentIndex())
}

func TestRemove_Missing(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1), 0)
	drainQueueChanged(h)

	assert.False(t, h.q.Remove(track.Track{ID: 42}))
	assert.Equal(t, 0, drainQueueChanged(h))
}

func TestMove(t *testing.T) {
	tests := []struct {
		name       string
		from, to   int
		current    int
		want       []int
		wantCursor int
	}{
		{"forward far", 0, 3, 2, []int{2, 3, 4, 1, 5}, 1},
		{"backward far", 4, 1, 2, []int{1, 5, 2, 3, 4}, 3},
		{"current itself", 2, 0, 2, []int{3, 1, 2, 4, 5}, 0},
		{"adjacent", 3, 4, 1, []int{1, 2, 3, 5, 4}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.q.Replace(tracks(1, 2, 3, 4, 5), tt.current)

			require.True(t, h.q.Move(tt.from, tt.to))

			assert.Equal(t, tt.want, ids(h.q.Tracks()))
			assert.Equal(t, tt.wantCursor, h.q.CurrentIndex())
			checkParallel(t, h.q)
		})
	}
}

func TestMove_OutOfRange(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2), 0)

	assert.False(t, h.q.Move(-1, 0))
	assert.False(t, h.q.Move(0, 2))
	assert.Equal(t, []int{1, 2}, ids(h.q.Tracks()))
}

func TestShuffle_KeepsCurrentAtFront(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3, 4), 1)
	curSrc := h.q.Source(1)
	drainQueueChanged(h)
	sets := h.store.SetCount(state.KeyQueue)

	h.q.Shuffle()

	got := h.q.Tracks()
	assert.Equal(t, 0, h.q.CurrentIndex())
	assert.Equal(t, 2, h.q.Current().ID)
	assert.Same(t, curSrc, h.q.Source(0), "current source is kept")
	assert.ElementsMatch(t, []int{1, 3, 4}, ids(got[1:]))
	assert.Equal(t, 1, drainQueueChanged(h))
	assert.Equal(t, sets+1, h.store.SetCount(state.KeyQueue), "persisted once")
	checkParallel(t, h.q)
}

func TestShuffle_NotStarted(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Append(tracks(1, 2, 3, 4))

	h.q.Shuffle()

	assert.Equal(t, -1, h.q.CurrentIndex())
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, ids(h.q.Tracks()))
	checkParallel(t, h.q)
}

func TestShuffle_TooSmall(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1), 0)
	drainQueueChanged(h)

	h.q.Shuffle()
	assert.Equal(t, 0, drainQueueChanged(h))
}

func TestClear(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2), 1)

	h.q.Clear()

	assert.Equal(t, 0, h.q.Len())
	assert.Equal(t, -1, h.q.CurrentIndex())
	assert.Nil(t, h.q.Current())
}

func TestPersistence_RoundTrip(t *testing.T) {
	store := state.NewMock()
	h := newHarness(t, store)
	h.q.Replace(tracks(10, 20, 30, 40), 0)
	require.True(t, h.q.SetCurrentIndex(2))

	restored := newHarness(t, store)

	assert.Equal(t, []int{10, 20, 30, 40}, ids(restored.q.Tracks()))
	assert.Equal(t, 30, restored.q.Current().ID)
	assert.Equal(t, 4, restored.factory.built)
	checkParallel(t, restored.q)
}

func TestPersistence_RoundTripSQLite(t *testing.T) {
	m, err := state.Open(":memory:")
	require.NoError(t, err)
	defer m.Close()

	f := bus.New()
	defer f.Close()
	q := NewQueue(m, &fakeFactory{}, f, zerolog.Nop())
	q.Replace(tracks(1, 2, 3), 1)

	restored := NewQueue(m, &fakeFactory{}, f, zerolog.Nop())
	assert.Equal(t, []int{1, 2, 3}, ids(restored.Tracks()))
	assert.Equal(t, 2, restored.Current().ID)
}

func TestPersistence_CorruptDataMeansEmpty(t *testing.T) {
	store := state.NewMock()
	require.NoError(t, store.Set(state.KeyQueue, []byte("{not json")))
	require.NoError(t, store.Set(state.KeyCurrent, []byte("3")))

	h := newHarness(t, store)

	assert.Equal(t, 0, h.q.Len())
	assert.Equal(t, -1, h.q.CurrentIndex())
}

func TestPersistence_StoreFailuresIgnored(t *testing.T) {
	store := state.NewMock()
	store.FailGets(true)
	store.FailSets(true)

	h := newHarness(t, store)
	h.q.Replace(tracks(1), 0)

	assert.Equal(t, 1, h.q.Len())
}

func TestIndexOf_FollowsSourceIdentity(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2, 3), 0)
	src := h.q.Source(2)

	require.True(t, h.q.Move(2, 0))

	assert.Equal(t, 0, h.q.IndexOf(src))
	assert.Equal(t, -1, h.q.IndexOf(&fakeSource{id: 2}))
}

func TestIsLast(t *testing.T) {
	h := newHarness(t, nil)
	assert.False(t, h.q.IsLast())

	h.q.Replace(tracks(1, 2), 0)
	assert.False(t, h.q.IsLast())
	require.True(t, h.q.SetCurrentIndex(1))
	assert.True(t, h.q.IsLast())
}

func TestUpdateTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.q.Replace(tracks(1, 2), 0)
	src := h.q.Source(1)

	updated := track.Track{ID: 2, Title: "T2", Favorite: true}
	require.True(t, h.q.UpdateTrack(updated))

	assert.True(t, h.q.Track(1).Favorite)
	assert.Same(t, src, h.q.Source(1))
	assert.False(t, h.q.UpdateTrack(track.Track{ID: 99}))
}
