package player

import (
	"context"
	"io"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

const eventBufferSize = 128

// Player renders a Playlist through the system speaker.
//
// Sources are opened and decoded off the caller's goroutine; callers
// observe progress through Events. All exported methods are safe for
// concurrent use.
type Player struct {
	mu sync.Mutex

	playlist      Playlist
	index         int    // last known index of current
	current       Source // source being loaded or played
	gen           uint64 // bumped on every load/stop to discard stale work
	state         State
	playWhenReady bool
	repeat        RepeatMode
	level         float64

	streamer beep.StreamSeekCloser
	format   beep.Format
	file     io.Closer
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	events   chan Event
	finished chan uint64

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a player and starts its transition loop.
func New() *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		state:    Idle,
		level:    1,
		events:   make(chan Event, eventBufferSize),
		finished: make(chan uint64, 4),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

// Events delivers renderer callbacks.
func (p *Player) Events() <-chan Event {
	return p.events
}

// Load replaces the playlist and prepares its first source.
func (p *Player) Load(pl Playlist) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.playlist = pl
	p.index = 0
	if pl == nil || pl.Len() == 0 {
		p.stopLocked()
		return
	}
	p.loadLocked(0, 0)
}

// State returns the renderer state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// PlayWhenReady reports whether playback proceeds once the source is ready.
func (p *Player) PlayWhenReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playWhenReady
}

// CurrentIndex returns the playlist index of the current source.
func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveIndexLocked()
}

// SetRepeatMode changes what happens when a source ends.
func (p *Player) SetRepeatMode(m RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = m
}

// Close stops playback and the transition loop.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.done)
		p.Stop()
	})
	return nil
}

// loop turns end-of-source callbacks into transitions.
func (p *Player) loop() {
	for {
		select {
		case <-p.done:
			return
		case gen := <-p.finished:
			p.handleFinished(gen)
		}
	}
}

// resolveIndexLocked follows the current source through playlist edits.
func (p *Player) resolveIndexLocked() int {
	p.index, _ = locate(p.playlist, p.current, p.index)
	return p.index
}

// baseIndexLocked is the index next/previous are computed from.
func (p *Player) baseIndexLocked() int {
	idx, present := locate(p.playlist, p.current, p.index)
	p.index = idx
	if !present {
		return idx - 1
	}
	return idx
}

// emit delivers an event without blocking; emit is called under mu.
func (p *Player) emit(e Event) {
	select {
	case p.events <- e:
	default:
	}
}
