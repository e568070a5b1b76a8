package bus

import (
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

// Command asks the playback controller to do something. Commands are
// fire-and-forget.
type Command interface {
	command()
}

// RadioSpec identifies a radio on the remote pod.
type RadioSpec struct {
	Type            string // e.g. "random", "favorites", "artist", "tag"
	RelatedObjectID string // artist id, tag name... empty for global radios
}

// ReplaceQueue discards the queue and plays Tracks from StartIndex.
// FromRadio marks queues produced by the radio session manager so the
// controller keeps the session alive.
type ReplaceQueue struct {
	Tracks     []track.Track
	FromRadio  bool
	StartIndex int
}

// AddToQueue appends tracks, skipping ones already queued.
type AddToQueue struct {
	Tracks []track.Track
}

// PlayNext inserts or relocates Track right after the current one.
type PlayNext struct {
	Track track.Track
}

// RemoveFromQueue removes Track from the queue.
type RemoveFromQueue struct {
	Track track.Track
}

// MoveFromQueue moves the entry at From to To.
type MoveFromQueue struct {
	From int
	To   int
}

// PlayTrack jumps to the queue entry at Index and starts playing.
type PlayTrack struct {
	Index int
}

// ToggleState flips between playing and paused.
type ToggleState struct{}

// SetState requests playing (true) or paused (false).
type SetState struct {
	Playing bool
}

// NextTrack advances to the next queue entry.
type NextTrack struct{}

// PreviousTrack restarts the current track or goes back one entry.
type PreviousTrack struct{}

// Seek moves within the current track. Percent is 0..100.
type Seek struct {
	Percent float64
}

// ClearQueue empties the queue and stops the renderer.
type ClearQueue struct{}

// ShuffleQueue shuffles the queue, keeping the current track playing.
type ShuffleQueue struct{}

// PlayRadio clears the queue and starts a radio session.
type PlayRadio struct {
	Spec RadioSpec
}

// SetRepeatMode changes the renderer repeat behavior.
type SetRepeatMode struct {
	Mode player.RepeatMode
}

// PinTrack asks the download manager to keep tracks available offline.
type PinTrack struct {
	Tracks []track.Track
}

// RefreshTrack tells now-playing surfaces to redraw Track.
type RefreshTrack struct {
	Track *track.Track
}

func (ReplaceQueue) command()    {}
func (AddToQueue) command()      {}
func (PlayNext) command()        {}
func (RemoveFromQueue) command() {}
func (MoveFromQueue) command()   {}
func (PlayTrack) command()       {}
func (ToggleState) command()     {}
func (SetState) command()        {}
func (NextTrack) command()       {}
func (PreviousTrack) command()   {}
func (Seek) command()            {}
func (ClearQueue) command()      {}
func (ShuffleQueue) command()    {}
func (PlayRadio) command()       {}
func (SetRepeatMode) command()   {}
func (PinTrack) command()        {}
func (RefreshTrack) command()    {}
