// internal/player/interface.go
package player

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSeekOutOfRange is returned when a seek targets a missing queue index
// or a position outside the track.
var ErrSeekOutOfRange = errors.New("seek out of range")

// Source is an opaque playable unit built from a track's stream URL.
// Sources are compared by identity.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	MimeType() string
	String() string
}

// Playlist is the ordered list of sources the renderer plays through.
// The renderer reads it lazily, so mutations made by its owner are seen
// on the next transition.
type Playlist interface {
	Len() int
	Source(index int) Source // nil if out of range
	IndexOf(s Source) int    // -1 if absent
}

// EventKind identifies a renderer callback.
type EventKind int

const (
	EventBuffering     EventKind = iota // a source is being opened
	EventReady                          // the current source is decoded and playable
	EventTrackEnded                     // the source at Index played to its end
	EventTracksChanged                  // the renderer moved to Index
	EventEnded                          // nothing left to play
	EventError                          // the source at Index failed
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventBuffering:
		return "Buffering"
	case EventReady:
		return "Ready"
	case EventTrackEnded:
		return "TrackEnded"
	case EventTracksChanged:
		return "TracksChanged"
	case EventEnded:
		return "Ended"
	case EventError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Event is a renderer callback delivered on Events().
type Event struct {
	Kind  EventKind
	Index int
	Err   error
}

// Renderer is the audio output capability the playback controller drives.
type Renderer interface {
	// Load replaces the playlist and prepares index 0.
	Load(pl Playlist)
	Play()
	Pause()
	PlayWhenReady() bool
	State() State
	// SeekTo moves to index and position within it.
	SeekTo(index int, pos time.Duration) error
	// Seek moves within the current source.
	Seek(pos time.Duration) error
	Next() bool
	Previous() bool
	CurrentIndex() int
	Position() time.Duration
	SetRepeatMode(m RepeatMode)
	SetVolume(level float64)
	Stop()
	Events() <-chan Event
	Close() error
}

// Verify Player implements Renderer at compile time.
var _ Renderer = (*Player)(nil)
