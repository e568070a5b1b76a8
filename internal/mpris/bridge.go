package mpris

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

// askTimeout bounds requests made while answering a D-Bus call.
const askTimeout = 250 * time.Millisecond

// Status mirrors the MPRIS playback status.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// bridge translates media-control calls into bus commands and answers
// property reads from the last events seen and from bus requests.
type bridge struct {
	fabric *bus.Fabric
	logger zerolog.Logger

	mu       sync.Mutex
	playing  bool
	stopped  bool
	current  *track.Track
	repeat   player.RepeatMode
	shuffled bool
}

func newBridge(f *bus.Fabric, logger zerolog.Logger) *bridge {
	return &bridge{fabric: f, logger: logger, stopped: true}
}

// watch keeps the snapshot current until ctx is done or sub closes.
func (b *bridge) watch(ctx context.Context, sub *bus.Subscription[bus.Event]) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case e := <-sub.C:
			b.observe(e)
		}
	}
}

func (b *bridge) observe(e bus.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch e := e.(type) {
	case bus.StateChanged:
		b.playing = e.Playing
		if e.Playing {
			b.stopped = false
		}
	case bus.TrackChanged:
		b.current = e.Track
		b.stopped = e.Track == nil
	case bus.PlaybackStopped:
		b.playing = false
		b.stopped = true
		b.shuffled = false
	}
}

func (b *bridge) play()     { b.fabric.Send(bus.SetState{Playing: true}) }
func (b *bridge) pause()    { b.fabric.Send(bus.SetState{Playing: false}) }
func (b *bridge) toggle()   { b.fabric.Send(bus.ToggleState{}) }
func (b *bridge) next()     { b.fabric.Send(bus.NextTrack{}) }
func (b *bridge) previous() { b.fabric.Send(bus.PreviousTrack{}) }

// seekBy moves offset away from the current position.
func (b *bridge) seekBy(offset time.Duration) {
	p, ok := b.progress()
	if !ok {
		return
	}
	b.seekTo(p, p.Position+offset)
}

// setPosition moves to pos in the current track.
func (b *bridge) setPosition(pos time.Duration) {
	p, ok := b.progress()
	if !ok {
		return
	}
	b.seekTo(p, pos)
}

func (b *bridge) seekTo(p bus.Progress, pos time.Duration) {
	if p.Duration <= 0 {
		return
	}
	pos = max(0, min(pos, p.Duration))
	b.fabric.Send(bus.Seek{Percent: float64(pos) / float64(p.Duration) * 100})
}

func (b *bridge) progress() (bus.Progress, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()
	p, err := b.fabric.Progress(ctx)
	if err != nil {
		b.logger.Debug().Err(err).Msg("progress request")
		return bus.Progress{}, false
	}
	return p, true
}

func (b *bridge) position() time.Duration {
	p, _ := b.progress()
	return p.Position
}

func (b *bridge) status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.playing:
		return StatusPlaying
	case b.stopped:
		return StatusStopped
	default:
		return StatusPaused
	}
}

func (b *bridge) track() *track.Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// queuePosition returns the cursor and queue length.
func (b *bridge) queuePosition() (index, length int) {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()
	tracks, err := b.fabric.Tracks(ctx)
	if err != nil {
		return -1, 0
	}
	for i, t := range tracks {
		if t.Current {
			return i, len(tracks)
		}
	}
	return -1, len(tracks)
}

func (b *bridge) canGoNext() bool {
	idx, n := b.queuePosition()
	return n > 0 && idx < n-1
}

func (b *bridge) canGoPrevious() bool {
	idx, _ := b.queuePosition()
	return idx > 0
}

func (b *bridge) canPlay() bool {
	_, n := b.queuePosition()
	return n > 0
}

func (b *bridge) repeatMode() player.RepeatMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.repeat
}

func (b *bridge) setRepeatMode(m player.RepeatMode) {
	b.mu.Lock()
	b.repeat = m
	b.mu.Unlock()
	b.fabric.Send(bus.SetRepeatMode{Mode: m})
}

// shuffle reports whether the queue was shuffled since playback last stopped.
func (b *bridge) shuffle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shuffled
}

// setShuffle shuffles the queue once. The queue has no unshuffled order to
// return to, so turning shuffle off only clears the flag.
func (b *bridge) setShuffle(on bool) {
	if on {
		b.fabric.Send(bus.ShuffleQueue{})
	}
	b.mu.Lock()
	b.shuffled = on
	b.mu.Unlock()
}
