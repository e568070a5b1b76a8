// Package focus models the OS audio-focus arbiter: the exclusive right to
// produce audio, which other applications can revoke at any time.
package focus

import "sync"

// Change is a focus transition reported by the arbiter.
type Change int

const (
	Gain                 Change = iota // focus (re)acquired
	Loss                               // lost until requested again
	LossTransient                      // lost for a short while, expect Gain
	LossTransientCanDuck               // may keep playing at lower volume
)

// String returns the change name.
func (c Change) String() string {
	switch c {
	case Gain:
		return "Gain"
	case Loss:
		return "Loss"
	case LossTransient:
		return "LossTransient"
	case LossTransientCanDuck:
		return "LossTransientCanDuck"
	default:
		return "Unknown"
	}
}

// Arbiter grants and revokes audio focus.
type Arbiter interface {
	// Request asks for focus. Returns false if denied.
	Request() bool
	// Abandon releases focus.
	Abandon()
	// Changes delivers focus transitions decided by the system.
	Changes() <-chan Change
}

// AlwaysGranted is the arbiter for systems without audio focus: every
// request succeeds and focus is never revoked.
type AlwaysGranted struct{}

func (AlwaysGranted) Request() bool { return true }

func (AlwaysGranted) Abandon() {}

func (AlwaysGranted) Changes() <-chan Change { return nil }

// Mock is a scriptable arbiter for tests.
type Mock struct {
	mu       sync.Mutex
	deny     bool
	held     bool
	requests int
	abandons int
	changes  chan Change
}

// NewMock creates a mock that grants requests.
func NewMock() *Mock {
	return &Mock{changes: make(chan Change, 16)}
}

func (m *Mock) Request() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if m.deny {
		return false
	}
	m.held = true
	return true
}

func (m *Mock) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandons++
	m.held = false
}

func (m *Mock) Changes() <-chan Change { return m.changes }

// Test helpers

// Deny makes subsequent requests fail.
func (m *Mock) Deny(deny bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deny = deny
}

// Send delivers a focus change as the system would.
func (m *Mock) Send(c Change) {
	m.mu.Lock()
	m.held = c == Gain || c == LossTransientCanDuck
	m.mu.Unlock()
	m.changes <- c
}

// Held reports whether focus is currently held.
func (m *Mock) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// Requests returns how many times Request was called.
func (m *Mock) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// Abandons returns how many times Abandon was called.
func (m *Mock) Abandons() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abandons
}

// Verify implementations at compile time.
var (
	_ Arbiter = AlwaysGranted{}
	_ Arbiter = (*Mock)(nil)
)
