package player

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

var (
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

// loadLocked tears down the current stream and starts opening the source
// at index. pos is applied once the source is decoded.
func (p *Player) loadLocked(index int, pos time.Duration) {
	p.teardownLocked()
	p.gen++
	gen := p.gen

	p.index = index
	p.current = p.playlist.Source(index)
	if p.current == nil {
		p.state = Idle
		return
	}
	p.state = Buffering
	p.emit(Event{Kind: EventBuffering, Index: index})

	go p.open(gen, index, p.current, pos)
}

// open fetches and decodes src, then installs it if still wanted.
func (p *Player) open(gen uint64, index int, src Source, pos time.Duration) {
	rc, err := src.Open(p.ctx)
	if err != nil {
		p.fail(gen, index, fmt.Errorf("open %s: %w", src, err))
		return
	}

	streamer, format, err := decode(rc, src.MimeType())
	if err != nil {
		rc.Close()
		p.fail(gen, index, fmt.Errorf("decode %s: %w", src, err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		streamer.Close()
		rc.Close()
		return
	}

	if !speakerInitialized {
		speakerSampleRate = format.SampleRate
		err = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
		if err != nil {
			streamer.Close()
			rc.Close()
			p.state = Idle
			p.emit(Event{Kind: EventError, Index: index, Err: fmt.Errorf("init speaker: %w", err)})
			return
		}
		speakerInitialized = true
	}

	if pos > 0 {
		if n := format.SampleRate.N(pos); n < streamer.Len() {
			_ = streamer.Seek(n)
		}
	}

	p.file = rc
	p.streamer = streamer
	p.format = format

	// Resample if the track's sample rate differs from the speaker's
	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: !p.playWhenReady}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   levelToVolume(p.level),
		Silent:   p.level <= 0,
	}
	p.state = Ready

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		select {
		case p.finished <- gen:
		default:
		}
	})))

	p.emit(Event{Kind: EventReady, Index: index})
}

func (p *Player) fail(gen uint64, index int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.state = Idle
	p.emit(Event{Kind: EventError, Index: index, Err: err})
}

// teardownLocked releases the active stream.
func (p *Player) teardownLocked() {
	if p.streamer == nil {
		return
	}
	speaker.Clear()
	p.streamer.Close()
	if p.file != nil {
		p.file.Close()
	}
	p.streamer = nil
	p.file = nil
	p.ctrl = nil
	p.volume = nil
}

func decode(rc io.ReadCloser, mimeType string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(mimeType) {
	case "audio/flac", "audio/x-flac":
		return flac.Decode(rc)
	default:
		return mp3.Decode(rc)
	}
}
