// internal/state/mock.go
package state

import (
	"errors"
	"sync"
)

// ErrMockFailure is returned by a Mock configured to fail.
var ErrMockFailure = errors.New("mock store failure")

// Mock is an in-memory Store for tests.
type Mock struct {
	mu        sync.Mutex
	values    map[string][]byte
	sets      map[string]int
	failGet   bool
	failSet   bool
	scrobbles []PendingScrobble
	nextID    int64
	closed    bool
}

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{
		values: make(map[string][]byte),
		sets:   make(map[string]int),
	}
}

func (m *Mock) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, ErrMockFailure
	}
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *Mock) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return ErrMockFailure
	}
	m.values[key] = append([]byte(nil), value...)
	m.sets[key]++
	return nil
}

func (m *Mock) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Mock) AddPendingScrobble(s PendingScrobble) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.scrobbles = append(m.scrobbles, s)
	return nil
}

func (m *Mock) GetPendingScrobbles() ([]PendingScrobble, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PendingScrobble(nil), m.scrobbles...), nil
}

func (m *Mock) DeletePendingScrobble(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.scrobbles {
		if s.ID == id {
			m.scrobbles = append(m.scrobbles[:i], m.scrobbles[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mock) UpdatePendingScrobbleAttempt(id int64, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.scrobbles {
		if m.scrobbles[i].ID == id {
			m.scrobbles[i].Attempts++
			m.scrobbles[i].LastError = errMsg
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetCount returns how many times key was written.
func (m *Mock) SetCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[key]
}

// Has reports whether key holds a value.
func (m *Mock) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

// FailGets makes every Get return ErrMockFailure.
func (m *Mock) FailGets(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = fail
}

// FailSets makes every Set return ErrMockFailure.
func (m *Mock) FailSets(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fail
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
