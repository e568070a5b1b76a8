// internal/player/state.go
package player

// State represents the renderer state machine.
//
//	┌──────────┐    load      ┌───────────┐   decoded   ┌─────────┐
//	│   Idle   │ ───────────▶ │ Buffering │ ──────────▶ │  Ready  │
//	└──────────┘              └───────────┘             └─────────┘
//	     ▲                        ▲     │ error              │
//	     │ stop                   │     ▼                    │ source ends,
//	     │                        │   Idle                   │ nothing next
//	     │                        │                          ▼
//	     │                        └──── next source ──── ┌─────────┐
//	     └────────────────────────────────────────────── │  Ended  │
//	                                                     └─────────┘
//
// Whether audio is actually audible in Ready depends on PlayWhenReady,
// which is independent of State.
type State int

const (
	Idle State = iota
	Buffering
	Ready
	Ended
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Buffering:
		return "Buffering"
	case Ready:
		return "Ready"
	case Ended:
		return "Ended"
	default:
		return "Unknown"
	}
}

// HasMedia returns true if a source is loaded or loading.
func (s State) HasMedia() bool {
	return s == Buffering || s == Ready
}

// RepeatMode defines the renderer repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// nextIndex returns the index that follows cur in a playlist of n sources.
// Returns false when playback should end.
func nextIndex(cur, n int, mode RepeatMode) (int, bool) {
	if n <= 0 {
		return -1, false
	}
	if mode == RepeatOne && cur >= 0 && cur < n {
		return cur, true
	}
	if cur+1 < n {
		return cur + 1, true
	}
	if mode == RepeatAll {
		return 0, true
	}
	return -1, false
}

// previousIndex returns the index before cur. Returns false at the start
// unless repeating the whole playlist.
func previousIndex(cur, n int, mode RepeatMode) (int, bool) {
	if n <= 0 {
		return -1, false
	}
	if cur-1 >= 0 && cur-1 < n {
		return cur - 1, true
	}
	if mode == RepeatAll {
		return n - 1, true
	}
	return -1, false
}

// locate returns the index of cur in pl, or last if cur is no longer
// there. present is false in that case: when the current source is
// removed, its successor sits at last.
func locate(pl Playlist, cur Source, last int) (index int, present bool) {
	if pl == nil || cur == nil {
		return last, true
	}
	if i := pl.IndexOf(cur); i >= 0 {
		return i, true
	}
	return last, false
}

// skipMode is the repeat mode applied to explicit next/previous requests:
// repeating one track must not trap a user-requested skip.
func skipMode(mode RepeatMode) RepeatMode {
	if mode == RepeatOne {
		return RepeatOff
	}
	return mode
}
