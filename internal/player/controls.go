package player

import (
	"time"

	"github.com/gopxl/beep/v2/speaker"
)

// Play resumes audio output, now or once the current source is ready.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playWhenReady = true
	p.setPausedLocked(false)
}

// Pause suspends audio output without releasing the source.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playWhenReady = false
	p.setPausedLocked(true)
}

func (p *Player) setPausedLocked(paused bool) {
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop releases the current source and returns to Idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	p.teardownLocked()
	p.gen++
	p.current = nil
	p.playWhenReady = false
	p.state = Idle
}

// Position returns the playback position within the current source.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	n := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(n)
}

// Seek moves within the current source.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(pos)
}

func (p *Player) seekLocked(pos time.Duration) error {
	if p.streamer == nil || pos < 0 {
		return ErrSeekOutOfRange
	}
	n := p.format.SampleRate.N(pos)
	if n >= p.streamer.Len() {
		return ErrSeekOutOfRange
	}
	speaker.Lock()
	err := p.streamer.Seek(n)
	speaker.Unlock()
	return err
}

// SeekTo moves to pos within the source at index, loading it if needed.
func (p *Player) SeekTo(index int, pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil || index < 0 || index >= p.playlist.Len() || pos < 0 {
		return ErrSeekOutOfRange
	}
	cur, present := locate(p.playlist, p.current, p.index)
	p.index = cur
	if present && index == cur && p.state == Ready && p.streamer != nil {
		return p.seekLocked(pos)
	}
	p.loadLocked(index, pos)
	p.emit(Event{Kind: EventTracksChanged, Index: index})
	return nil
}

// Next skips to the following source. Returns false if there is none.
func (p *Player) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playlist == nil {
		return false
	}
	next, ok := nextIndex(p.baseIndexLocked(), p.playlist.Len(), skipMode(p.repeat))
	if !ok {
		return false
	}
	p.loadLocked(next, 0)
	p.emit(Event{Kind: EventTracksChanged, Index: next})
	return true
}

// Previous skips to the preceding source. Returns false if there is none.
func (p *Player) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playlist == nil {
		return false
	}
	prev, ok := previousIndex(p.resolveIndexLocked(), p.playlist.Len(), skipMode(p.repeat))
	if !ok {
		return false
	}
	p.loadLocked(prev, 0)
	p.emit(Event{Kind: EventTracksChanged, Index: prev})
	return true
}

// handleFinished advances after the source of generation gen ran out.
func (p *Player) handleFinished(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.playlist == nil {
		return
	}

	base := p.baseIndexLocked()
	p.emit(Event{Kind: EventTrackEnded, Index: p.index})

	next, ok := nextIndex(base, p.playlist.Len(), p.repeat)
	if !ok {
		p.teardownLocked()
		p.gen++
		p.state = Ended
		p.emit(Event{Kind: EventEnded, Index: p.index})
		return
	}
	p.loadLocked(next, 0)
	p.emit(Event{Kind: EventTracksChanged, Index: next})
}
