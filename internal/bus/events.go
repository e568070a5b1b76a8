package bus

import (
	"time"

	"github.com/llehouerou/undertow/internal/track"
)

// Event is broadcast by the playback engine.
type Event interface {
	event()
}

// StateChanged is emitted after every play/pause request, granted or not.
type StateChanged struct {
	Playing bool
}

// Buffering is emitted when the renderer starts or stops buffering.
type Buffering struct {
	Active bool
}

// TrackFinished is emitted when the renderer moves past Track.
type TrackFinished struct {
	Track track.Track
}

// TrackChanged is emitted when the queue cursor moves to a new track.
type TrackChanged struct {
	Track *track.Track
	Index int
}

// QueueChanged is emitted after every queue mutation.
type QueueChanged struct{}

// PlaybackStopped is emitted when the queue is cleared or exhausted.
type PlaybackStopped struct{}

// PlaybackError carries a user-facing renderer error message.
type PlaybackError struct {
	Message string
}

// RadioStarted is emitted when a radio session has been opened.
type RadioStarted struct{}

// RadioReady is emitted after every radio track fetch, successful or not.
type RadioReady struct{}

// Toast carries a short user-facing message.
type Toast struct {
	Message string
}

// Progress is a playback position snapshot.
type Progress struct {
	Position time.Duration
	Duration time.Duration
	Percent  float64
}

// ProgressChanged is emitted once per second while playing.
type ProgressChanged struct {
	Progress Progress
}

func (StateChanged) event()    {}
func (Buffering) event()       {}
func (TrackFinished) event()   {}
func (TrackChanged) event()    {}
func (QueueChanged) event()    {}
func (PlaybackStopped) event() {}
func (PlaybackError) event()   {}
func (RadioStarted) event()    {}
func (RadioReady) event()      {}
func (Toast) event()           {}
func (ProgressChanged) event() {}
