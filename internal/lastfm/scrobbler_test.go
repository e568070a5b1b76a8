package lastfm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

type fakeAPI struct {
	mu         sync.Mutex
	fail       error
	nowPlaying []ScrobbleTrack
	scrobbles  []ScrobbleTrack
	batches    [][]ScrobbleTrack
}

func (f *fakeAPI) UpdateNowPlaying(t ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, t)
	return f.fail
}

func (f *fakeAPI) Scrobble(t ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.scrobbles = append(f.scrobbles, t)
	return nil
}

func (f *fakeAPI) ScrobbleBatch(tracks []ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.batches = append(f.batches, tracks)
	return nil
}

type fakeListenings struct {
	mu  sync.Mutex
	ids []int
}

func (f *fakeListenings) RecordListening(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func song(id, seconds int) track.Track {
	return track.Track{
		ID:      id,
		Title:   "Song",
		Artist:  "Artist",
		Album:   "Album",
		Uploads: []track.Upload{{ListenURL: "/l", Duration: seconds, Bitrate: 320000}},
	}
}

func newTestScrobbler(api API, l Listenings, store PendingStore) *Scrobbler {
	s := NewScrobbler(api, l, store, track.QualityMaxBitrate, zerolog.Nop())
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	return s
}

func TestScrobbler_NowPlayingOncePerTrack(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScrobbler(api, nil, nil)
	tr := song(1, 200)

	s.handle(context.Background(), bus.TrackChanged{Track: &tr})
	s.handle(context.Background(), bus.TrackChanged{Track: &tr})
	s.handle(context.Background(), bus.TrackChanged{Track: nil})

	require.Len(t, api.nowPlaying, 1)
	assert.Equal(t, "Song", api.nowPlaying[0].Track)
	assert.Equal(t, 200*time.Second, api.nowPlaying[0].Duration)
}

func TestScrobbler_FinishedScrobblesWithStartTime(t *testing.T) {
	api := &fakeAPI{}
	l := &fakeListenings{}
	s := newTestScrobbler(api, l, state.NewMock())
	tr := song(1, 200)

	s.handle(context.Background(), bus.TrackChanged{Track: &tr})
	started := s.now()
	s.now = func() time.Time { return started.Add(200 * time.Second) }
	s.handle(context.Background(), bus.TrackFinished{Track: tr})

	require.Len(t, api.scrobbles, 1)
	assert.Equal(t, started, api.scrobbles[0].Timestamp)
	assert.Equal(t, []int{1}, l.ids)
}

func TestScrobbler_FinishedWithoutChangeUsesLength(t *testing.T) {
	api := &fakeAPI{}
	s := newTestScrobbler(api, nil, nil)

	s.handle(context.Background(), bus.TrackFinished{Track: song(2, 100)})

	require.Len(t, api.scrobbles, 1)
	assert.Equal(t, s.now().Add(-100*time.Second), api.scrobbles[0].Timestamp)
}

func TestScrobbler_ShortTrackNotScrobbled(t *testing.T) {
	api := &fakeAPI{}
	l := &fakeListenings{}
	s := newTestScrobbler(api, l, nil)

	s.handle(context.Background(), bus.TrackFinished{Track: song(3, 20)})

	assert.Empty(t, api.scrobbles)
	assert.Equal(t, []int{3}, l.ids, "listenings are recorded regardless of length")
}

func TestScrobbler_FailureQueuesPending(t *testing.T) {
	api := &fakeAPI{fail: errors.New("offline")}
	store := state.NewMock()
	s := newTestScrobbler(api, nil, store)

	s.handle(context.Background(), bus.TrackFinished{Track: song(4, 180)})

	pending, err := store.GetPendingScrobbles()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Song", pending[0].Track)
	assert.Equal(t, 180, pending[0].DurationSecs)
}

func TestScrobbler_ListeningsOnlyWithoutAPI(t *testing.T) {
	l := &fakeListenings{}
	s := newTestScrobbler(nil, l, nil)
	tr := song(5, 200)

	s.handle(context.Background(), bus.TrackChanged{Track: &tr})
	s.handle(context.Background(), bus.TrackFinished{Track: tr})

	assert.Equal(t, []int{5}, l.ids)
}

func TestScrobbler_RetryPending(t *testing.T) {
	store := state.NewMock()
	require.NoError(t, store.AddPendingScrobble(state.PendingScrobble{Artist: "A", Track: "One", Timestamp: time.Unix(100, 0)}))
	require.NoError(t, store.AddPendingScrobble(state.PendingScrobble{Artist: "B", Track: "Two", Timestamp: time.Unix(200, 0)}))

	t.Run("failure counts an attempt", func(t *testing.T) {
		api := &fakeAPI{fail: errors.New("offline")}
		newTestScrobbler(api, nil, store).retryPending()

		pending, err := store.GetPendingScrobbles()
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, 1, pending[0].Attempts)
		assert.Equal(t, "offline", pending[0].LastError)
	})

	t.Run("success submits one batch", func(t *testing.T) {
		api := &fakeAPI{}
		newTestScrobbler(api, nil, store).retryPending()

		require.Len(t, api.batches, 1)
		assert.Len(t, api.batches[0], 2)
		pending, err := store.GetPendingScrobbles()
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestScrobbler_RetryDropsExhausted(t *testing.T) {
	store := state.NewMock()
	require.NoError(t, store.AddPendingScrobble(state.PendingScrobble{Artist: "A", Track: "One"}))
	for range MaxAttempts {
		require.NoError(t, store.UpdatePendingScrobbleAttempt(1, "x"))
	}

	api := &fakeAPI{}
	newTestScrobbler(api, nil, store).retryPending()

	assert.Empty(t, api.batches)
	pending, err := store.GetPendingScrobbles()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestScrobbler_RunConsumesBus(t *testing.T) {
	f := bus.New()
	defer f.Close()
	api := &fakeAPI{}
	s := newTestScrobbler(api, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	sub := f.Events.Subscribe()
	go func() { done <- s.Run(ctx, sub) }()

	tr := song(6, 200)
	f.Emit(bus.TrackChanged{Track: &tr})

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.nowPlaying) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
