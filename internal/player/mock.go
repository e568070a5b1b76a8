// internal/player/mock.go
package player

import (
	"sync"
	"time"
)

// SeekCall records a SeekTo invocation on Mock.
type SeekCall struct {
	Index    int
	Position time.Duration
}

// Mock is a test double for Player. State changes are immediate and
// callbacks are queued on Events, so tests drive transitions explicitly.
type Mock struct {
	mu sync.Mutex

	playlist      Playlist
	index         int
	current       Source
	state         State
	playWhenReady bool
	repeat        RepeatMode
	level         float64
	position      time.Duration
	duration      time.Duration

	loadCalls  int
	playCalls  int
	pauseCalls int
	stopCalls  int
	seekCalls  []SeekCall
	volumes    []float64

	events chan Event
	closed bool
}

// NewMock creates a new mock renderer.
func NewMock() *Mock {
	return &Mock{
		state:  Idle,
		level:  1,
		events: make(chan Event, eventBufferSize),
	}
}

func (m *Mock) Load(pl Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	m.playlist = pl
	m.index = 0
	m.current = nil
	m.position = 0
	if pl == nil || pl.Len() == 0 {
		m.state = Idle
		return
	}
	m.current = pl.Source(0)
	m.state = Ready
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	m.playWhenReady = true
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	m.playWhenReady = false
}

func (m *Mock) PlayWhenReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playWhenReady
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) SeekTo(index int, pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playlist == nil || index < 0 || index >= m.playlist.Len() || pos < 0 {
		return ErrSeekOutOfRange
	}
	if m.duration > 0 && pos >= m.duration {
		return ErrSeekOutOfRange
	}
	m.seekCalls = append(m.seekCalls, SeekCall{Index: index, Position: pos})
	m.position = pos
	if cur, present := locate(m.playlist, m.current, m.index); !present || index != cur {
		m.index = index
		m.current = m.playlist.Source(index)
		m.state = Ready
		m.emit(Event{Kind: EventTracksChanged, Index: index})
	}
	return nil
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	idx, _ := locate(m.playlist, m.current, m.index)
	m.mu.Unlock()
	return m.SeekTo(idx, pos)
}

func (m *Mock) Next() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playlist == nil {
		return false
	}
	next, ok := nextIndex(m.baseLocked(), m.playlist.Len(), skipMode(m.repeat))
	if !ok {
		return false
	}
	m.moveLocked(next)
	return true
}

func (m *Mock) Previous() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playlist == nil {
		return false
	}
	m.index, _ = locate(m.playlist, m.current, m.index)
	prev, ok := previousIndex(m.index, m.playlist.Len(), skipMode(m.repeat))
	if !ok {
		return false
	}
	m.moveLocked(prev)
	return true
}

func (m *Mock) baseLocked() int {
	idx, present := locate(m.playlist, m.current, m.index)
	m.index = idx
	if !present {
		return idx - 1
	}
	return idx
}

func (m *Mock) moveLocked(index int) {
	m.index = index
	m.current = m.playlist.Source(index)
	m.position = 0
	m.state = Ready
	m.emit(Event{Kind: EventTracksChanged, Index: index})
}

func (m *Mock) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index, _ = locate(m.playlist, m.current, m.index)
	return m.index
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) SetRepeatMode(mode RepeatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = mode
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
	m.volumes = append(m.volumes, level)
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.state = Idle
	m.playWhenReady = false
	m.position = 0
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Mock) emit(e Event) {
	select {
	case m.events <- e:
	default:
	}
}

// Test helpers

// SimulateTrackEnd ends the current source and advances like Player does.
func (m *Mock) SimulateTrackEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.baseLocked()
	m.emit(Event{Kind: EventTrackEnded, Index: m.index})
	n := 0
	if m.playlist != nil {
		n = m.playlist.Len()
	}
	next, ok := nextIndex(base, n, m.repeat)
	if !ok {
		m.state = Ended
		m.emit(Event{Kind: EventEnded, Index: m.index})
		return
	}
	m.moveLocked(next)
}

// SimulateBuffering reports the current source as loading.
func (m *Mock) SimulateBuffering() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Buffering
	m.emit(Event{Kind: EventBuffering, Index: m.index})
}

// SimulateReady reports the current source as playable.
func (m *Mock) SimulateReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Ready
	m.emit(Event{Kind: EventReady, Index: m.index})
}

// SimulateError reports a failure of the current source.
func (m *Mock) SimulateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
	m.emit(Event{Kind: EventError, Index: m.index, Err: err})
}

// SetPosition sets the reported playback position.
func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// SetDuration sets the length used to reject out-of-range seeks.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// LoadCalls returns how many times Load was called.
func (m *Mock) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// PlayCalls returns how many times Play was called.
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// PauseCalls returns how many times Pause was called.
func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

// StopCalls returns how many times Stop was called.
func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// SeekCalls returns recorded SeekTo invocations.
func (m *Mock) SeekCalls() []SeekCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeekCall(nil), m.seekCalls...)
}

// Volume returns the last level passed to SetVolume.
func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Repeat returns the current repeat mode.
func (m *Mock) Repeat() RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeat
}

// IsClosed reports whether Close was called.
func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Renderer at compile time.
var _ Renderer = (*Mock)(nil)
