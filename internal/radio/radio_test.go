package radio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/pod"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

type fakePod struct {
	mu         sync.Mutex
	createErr  error
	nextErr    error
	nextCalls  atomic.Int32
	favCalls   atomic.Int32
	nextID     int
	favorites  []int
	block      chan struct{} // when set, NextRadioTrack waits on it
	entered    chan struct{}
	gate       chan struct{} // when set, only the next NextRadioTrack waits on it
	gateHit    chan struct{}
	onCreate   func()
	lastCookie string
}

// holdNext makes the next NextRadioTrack call block until release is
// closed. entered fires once that call is waiting.
func (p *fakePod) holdNext() (entered <-chan struct{}, release chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
	p.gateHit = make(chan struct{}, 1)
	return p.gateHit, p.gate
}

func (p *fakePod) CreateRadioSession(_ context.Context, _, _ string) (pod.Session, error) {
	if p.createErr != nil {
		return pod.Session{}, p.createErr
	}
	if p.onCreate != nil {
		p.onCreate()
	}
	return pod.Session{ID: 7, Cookie: "abc"}, nil
}

func (p *fakePod) NextRadioTrack(_ context.Context, s pod.Session) (int, error) {
	p.nextCalls.Add(1)
	p.mu.Lock()
	gate, hit := p.gate, p.gateHit
	p.gate, p.gateHit = nil, nil
	p.mu.Unlock()
	if gate != nil {
		hit <- struct{}{}
		<-gate
	}
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCookie = s.Cookie
	if p.nextErr != nil {
		return 0, p.nextErr
	}
	p.nextID++
	return p.nextID, nil
}

func (p *fakePod) Track(_ context.Context, id int) (track.Track, error) {
	return track.Track{ID: id, Title: "radio"}, nil
}

func (p *fakePod) FavoriteTrackIDs(context.Context) ([]int, error) {
	p.favCalls.Add(1)
	return p.favorites, nil
}

type recorder struct {
	mu       sync.Mutex
	commands []bus.Command
	events   []bus.Event
}

func (r *recorder) Send(c bus.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

func (r *recorder) Emit(e bus.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Commands() []bus.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bus.Command(nil), r.commands...)
}

func (r *recorder) count(match func(bus.Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isToast(e bus.Event) bool   { _, ok := e.(bus.Toast); return ok }
func isReady(e bus.Event) bool   { _, ok := e.(bus.RadioReady); return ok }
func isStarted(e bus.Event) bool { _, ok := e.(bus.RadioStarted); return ok }

func newManager(t *testing.T, p *fakePod, store *state.Mock) (*Manager, *recorder) {
	t.Helper()
	if store == nil {
		store = state.NewMock()
	}
	rec := &recorder{}
	return New(p, store, rec, zerolog.Nop()), rec
}

func TestPlay_CreatesSessionAndReplacesQueue(t *testing.T) {
	store := state.NewMock()
	m, rec := newManager(t, &fakePod{}, store)

	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "artist", RelatedObjectID: "12"}))

	assert.True(t, m.IsActive())
	s, ok := m.Session()
	require.True(t, ok)
	assert.Equal(t, 7, s.Pod.ID)
	assert.Equal(t, "abc", s.Pod.Cookie)

	cmds := rec.Commands()
	require.Len(t, cmds, 1)
	rq, ok := cmds[0].(bus.ReplaceQueue)
	require.True(t, ok)
	assert.True(t, rq.FromRadio)
	assert.Equal(t, []int{1}, track.IDs(rq.Tracks))

	assert.Equal(t, 1, rec.count(isStarted))
	assert.Equal(t, 1, rec.count(isReady))

	for _, key := range sessionKeys {
		assert.True(t, store.Has(key), key)
	}
}

func TestPlay_FailureReportsToastAndStaysStopped(t *testing.T) {
	m, rec := newManager(t, &fakePod{createErr: errors.New("boom")}, nil)

	err := m.Play(context.Background(), bus.RadioSpec{Type: "random"})

	require.Error(t, err)
	assert.False(t, m.IsActive())
	assert.Equal(t, 1, rec.count(isToast))
	assert.Equal(t, 1, rec.count(isReady))
	assert.Empty(t, rec.Commands())
}

func TestPlay_SupersededStillReportsReady(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)
	p.onCreate = m.Stop

	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))

	assert.False(t, m.IsActive())
	assert.Empty(t, rec.Commands())
	assert.Equal(t, 0, rec.count(isStarted))
	assert.Equal(t, 1, rec.count(isReady))
}

func TestPlay_NotBlockedByPreviousSessionFetch(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "artist", RelatedObjectID: "1"}))

	entered, release := p.holdNext()
	extended := make(chan bool)
	go func() { extended <- m.PrepareNextTrack(context.Background(), false) }()
	<-entered

	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "artist", RelatedObjectID: "2"}))
	close(release)

	select {
	case ok := <-extended:
		assert.False(t, ok, "the old session's track is discarded")
	case <-time.After(2 * time.Second):
		t.Fatal("extension fetch did not finish")
	}

	assert.True(t, m.IsActive())
	s, ok := m.Session()
	require.True(t, ok)
	assert.Equal(t, "2", s.Spec.RelatedObjectID)

	cmds := rec.Commands()
	require.Len(t, cmds, 2, "one replace per started radio")
	for _, c := range cmds {
		rq, ok := c.(bus.ReplaceQueue)
		require.True(t, ok, "%T", c)
		assert.True(t, rq.FromRadio)
	}
	assert.Equal(t, 3, rec.count(isReady))
}

func TestNew_RestoresPersistedSession(t *testing.T) {
	store := state.NewMock()
	p := &fakePod{}
	first, _ := newManager(t, p, store)
	require.NoError(t, first.Play(context.Background(), bus.RadioSpec{Type: "tag", RelatedObjectID: "jazz"}))

	m, rec := newManager(t, p, store)

	s, ok := m.Session()
	require.True(t, ok)
	assert.Equal(t, bus.RadioSpec{Type: "tag", RelatedObjectID: "jazz"}, s.Spec)
	assert.Equal(t, pod.Session{ID: 7, Cookie: "abc"}, s.Pod)

	require.True(t, m.PrepareNextTrack(context.Background(), false))
	_, ok = rec.Commands()[0].(bus.AddToQueue)
	assert.True(t, ok)
	assert.Equal(t, "abc", p.lastCookie)
}

func TestStop_Idempotent(t *testing.T) {
	store := state.NewMock()
	m, _ := newManager(t, &fakePod{}, store)
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))

	m.Stop()
	m.Stop()

	assert.False(t, m.IsActive())
	for _, key := range sessionKeys {
		assert.False(t, store.Has(key), key)
	}
}

func TestPrepareNextTrack_NoSession(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)

	assert.False(t, m.PrepareNextTrack(context.Background(), false))
	assert.Equal(t, int32(0), p.nextCalls.Load())
	assert.Equal(t, 1, rec.count(isReady), "ready is emitted even when nothing happens")
}

func TestPrepareNextTrack_SingleFlight(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))
	p.nextCalls.Store(0)

	p.block = make(chan struct{})
	p.entered = make(chan struct{}, 1)

	done := make(chan bool)
	go func() { done <- m.PrepareNextTrack(context.Background(), false) }()
	<-p.entered

	for range 3 {
		assert.False(t, m.PrepareNextTrack(context.Background(), false))
	}
	close(p.block)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not finish")
	}
	assert.Equal(t, int32(1), p.nextCalls.Load())

	adds := 0
	for _, c := range rec.Commands() {
		if _, ok := c.(bus.AddToQueue); ok {
			adds++
		}
	}
	assert.Equal(t, 1, adds)
}

func TestPrepareNextTrack_StaleResultDiscarded(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))

	p.block = make(chan struct{})
	p.entered = make(chan struct{}, 1)
	done := make(chan bool)
	go func() { done <- m.PrepareNextTrack(context.Background(), false) }()
	<-p.entered

	m.Stop()
	close(p.block)

	assert.False(t, <-done)
	assert.Len(t, rec.Commands(), 1, "only the first track was queued")
}

func TestPrepareNextTrack_FailureStopsRadio(t *testing.T) {
	p := &fakePod{}
	m, rec := newManager(t, p, nil)
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))

	p.nextErr = errors.New("gone")
	assert.False(t, m.PrepareNextTrack(context.Background(), false))

	assert.False(t, m.IsActive())
	assert.Equal(t, 1, rec.count(isToast))
}

func TestFavorites_EnrichRadioTracks(t *testing.T) {
	p := &fakePod{favorites: []int{2}}
	m, rec := newManager(t, p, nil)
	require.NoError(t, m.RefreshFavorites(context.Background(), false))
	require.NoError(t, m.Play(context.Background(), bus.RadioSpec{Type: "random"}))
	require.True(t, m.PrepareNextTrack(context.Background(), false))

	cmds := rec.Commands()
	require.Len(t, cmds, 2)
	first := cmds[0].(bus.ReplaceQueue).Tracks[0]
	second := cmds[1].(bus.AddToQueue).Tracks[0]
	assert.False(t, first.Favorite)
	assert.True(t, second.Favorite)
}

func TestRefreshFavorites_UsesFreshCache(t *testing.T) {
	store := state.NewMock()
	p := &fakePod{favorites: []int{5}}
	m, _ := newManager(t, p, store)
	require.NoError(t, m.RefreshFavorites(context.Background(), false))

	other, _ := newManager(t, p, store)
	require.NoError(t, other.RefreshFavorites(context.Background(), false))
	assert.True(t, other.IsFavorite(5))
	assert.Equal(t, int32(1), p.favCalls.Load())

	require.NoError(t, other.RefreshFavorites(context.Background(), true))
	assert.Equal(t, int32(2), p.favCalls.Load())
}
