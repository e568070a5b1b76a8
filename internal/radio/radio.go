// Package radio keeps a radio queue fed one track ahead of playback from a
// session opened on the pod.
package radio

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/pod"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

// ErrNoSession is returned when fetching a track with no active session.
var ErrNoSession = errors.New("no active radio session")

// Pod is the remote API the manager needs.
type Pod interface {
	CreateRadioSession(ctx context.Context, radioType, relatedObjectID string) (pod.Session, error)
	NextRadioTrack(ctx context.Context, s pod.Session) (int, error)
	Track(ctx context.Context, id int) (track.Track, error)
	FavoriteTrackIDs(ctx context.Context) ([]int, error)
}

// Bus is the part of the bus fabric the manager talks to.
type Bus interface {
	Send(c bus.Command)
	Emit(e bus.Event)
}

// Manager owns the radio session lifecycle:
//
//	Stopped ──Play──▶ creating ──ok──▶ Active ──Stop──▶ Stopped
//	                     │
//	                     └──error──▶ Stopped
type Manager struct {
	mu      sync.Mutex
	session *Session
	gen     uint64 // bumped whenever the session changes

	// guard lets a single PrepareNextTrack run; others skip.
	guard *semaphore.Weighted

	favMu     sync.Mutex
	favorites *favoriteSet

	pod    Pod
	store  state.Store
	bus    Bus
	logger zerolog.Logger
}

// New creates a manager and restores a persisted session, if any.
func New(p Pod, store state.Store, b Bus, logger zerolog.Logger) *Manager {
	m := &Manager{
		guard:  semaphore.NewWeighted(1),
		pod:    p,
		store:  store,
		bus:    b,
		logger: logger.With().Str("component", "radio").Logger(),
	}
	if s, ok := loadSession(store); ok {
		m.session = &s
		m.logger.Debug().Str("type", s.Spec.Type).Int("session", s.Pod.ID).Msg("radio session restored")
	}
	return m
}

// IsActive reports whether a session is active.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Session returns the active session.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Play opens a session for spec and queues its first track. Any previous
// session is dropped. Failures are reported as toasts. RadioReady is
// emitted on every return.
//
// The first track is fetched outside the PrepareNextTrack guard: an
// extension fetch still running for the previous session must not keep
// the new one from starting.
func (m *Manager) Play(ctx context.Context, spec bus.RadioSpec) error {
	defer m.bus.Emit(bus.RadioReady{})

	m.mu.Lock()
	m.session = nil
	m.gen++
	gen := m.gen
	m.mu.Unlock()
	m.deleteSession()

	ps, err := m.pod.CreateRadioSession(ctx, spec.Type, spec.RelatedObjectID)
	if err != nil {
		m.logger.Warn().Err(err).Str("type", spec.Type).Msg("radio session not created")
		m.bus.Emit(bus.Toast{Message: errmsg.FormatWith(errmsg.OpRadioStart, spec.Type, err)})
		return err
	}

	s := Session{Spec: spec, Pod: ps}
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug().Str("type", spec.Type).Msg("radio start superseded")
		return nil
	}
	m.session = &s
	m.mu.Unlock()

	saveSession(m.store, s, m.logger)
	m.bus.Emit(bus.RadioStarted{})

	m.prepare(ctx, s, gen, true)
	return nil
}

// Stop ends radio mode and forgets the persisted session. Calling Stop
// when no session is active is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	active := m.session != nil
	m.session = nil
	m.gen++
	m.mu.Unlock()

	m.deleteSession()
	if active {
		m.logger.Debug().Msg("radio stopped")
	}
}

// PrepareNextTrack fetches one track from the session and queues it,
// replacing the queue when first is set. Only one call runs at a time:
// concurrent callers return false without touching the network. Results
// of a session that was stopped or replaced meanwhile are discarded.
func (m *Manager) PrepareNextTrack(ctx context.Context, first bool) bool {
	if !m.guard.TryAcquire(1) {
		return false
	}
	defer m.guard.Release(1)
	defer m.bus.Emit(bus.RadioReady{})

	m.mu.Lock()
	s := m.session
	gen := m.gen
	m.mu.Unlock()
	if s == nil {
		m.logger.Debug().Err(ErrNoSession).Msg("skip radio fetch")
		return false
	}
	return m.prepare(ctx, *s, gen, first)
}

// prepare fetches and queues one track of s, which belongs to generation
// gen.
func (m *Manager) prepare(ctx context.Context, s Session, gen uint64, first bool) bool {
	t, err := m.fetch(ctx, s.Pod)
	if err != nil {
		m.logger.Warn().Err(err).Msg("radio fetch failed")
		m.bus.Emit(bus.Toast{Message: errmsg.Format(errmsg.OpRadioFetch, err)})
		m.stopGen(gen)
		return false
	}

	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()
	if stale {
		m.logger.Debug().Int("track", t.ID).Msg("discard track of stale radio session")
		return false
	}

	if first {
		m.bus.Send(bus.ReplaceQueue{Tracks: []track.Track{t}, FromRadio: true})
	} else {
		m.bus.Send(bus.AddToQueue{Tracks: []track.Track{t}})
	}
	return true
}

func (m *Manager) fetch(ctx context.Context, s pod.Session) (track.Track, error) {
	id, err := m.pod.NextRadioTrack(ctx, s)
	if err != nil {
		return track.Track{}, err
	}
	t, err := m.pod.Track(ctx, id)
	if err != nil {
		return track.Track{}, err
	}
	t.Favorite = m.IsFavorite(t.ID)
	return t, nil
}

// stopGen stops the session if it is still the one of generation gen.
func (m *Manager) stopGen(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.gen++
	m.mu.Unlock()
	m.deleteSession()
}

func (m *Manager) deleteSession() {
	for _, key := range sessionKeys {
		if err := m.store.Delete(key); err != nil {
			m.logger.Debug().Err(err).Str("key", key).Msg("delete radio key")
		}
	}
}
