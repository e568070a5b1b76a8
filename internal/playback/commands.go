package playback

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

func (c *Controller) handleCommand(cmd bus.Command) {
	switch cmd := cmd.(type) {
	case bus.ReplaceQueue:
		c.replaceQueue(cmd)
	case bus.AddToQueue:
		if c.queue.Append(cmd.Tracks) > 0 {
			c.resumeAfterGrowth()
		}
	case bus.PlayNext:
		c.queue.InsertNext(cmd.Track)
		c.resumeAfterGrowth()
	case bus.RemoveFromQueue:
		c.removeFromQueue(cmd.Track)
	case bus.MoveFromQueue:
		c.queue.Move(cmd.From, cmd.To)
	case bus.PlayTrack:
		c.playTrack(cmd.Index)
	case bus.ToggleState:
		c.setPlaying(!c.renderer.PlayWhenReady())
	case bus.SetState:
		c.setPlaying(cmd.Playing)
	case bus.NextTrack:
		c.renderer.Next()
	case bus.PreviousTrack:
		c.previous()
	case bus.Seek:
		c.seekPercent(cmd.Percent)
	case bus.ClearQueue:
		c.queue.Clear()
		c.stopPlayback()
	case bus.ShuffleQueue:
		c.shuffle()
	case bus.PlayRadio:
		c.playRadio(cmd.Spec)
	case bus.SetRepeatMode:
		c.renderer.SetRepeatMode(cmd.Mode)
	case bus.PinTrack:
		c.pin(cmd.Tracks)
	case bus.RefreshTrack:
		// For now-playing surfaces.
	default:
		c.logger.Warn().Type("command", cmd).Msg("unknown command")
	}
}

func (c *Controller) replaceQueue(cmd bus.ReplaceQueue) {
	if !cmd.FromRadio {
		c.radio.Stop()
	}
	c.queue.Replace(cmd.Tracks, cmd.StartIndex)
	if c.queue.Len() == 0 {
		c.stopPlayback()
		return
	}

	c.renderer.Load(c.queue)
	c.apply(TriggerBuffer)
	if idx := c.queue.CurrentIndex(); idx > 0 {
		if err := c.renderer.SeekTo(idx, 0); err != nil {
			c.logger.Debug().Err(err).Int("index", idx).Msg("seek to start index")
		}
	}
	c.setPlaying(true)
	c.trackChanged()
	c.extendRadio()
}

func (c *Controller) removeFromQueue(t track.Track) {
	cur := c.queue.Current()
	idx := c.queue.CurrentIndex()
	if !c.queue.Remove(t) {
		return
	}
	switch {
	case c.queue.Len() == 0:
		c.stopPlayback()
	case cur != nil && cur.ID == t.ID && idx >= c.queue.Len():
		// The removed track was last: nothing follows it, so park on the
		// new last entry instead of playing the removed audio out.
		if err := c.renderer.SeekTo(c.queue.CurrentIndex(), 0); err != nil {
			c.logger.Debug().Err(err).Msg("load after removing last track")
		}
		c.setPlaying(false)
		c.persistProgress(0)
		c.trackChanged()
		c.extendRadio()
	case cur != nil && cur.ID == t.ID:
		c.persistProgress(0)
		c.trackChanged()
	}
}

func (c *Controller) playTrack(index int) {
	if !c.queue.SetCurrentIndex(index) {
		return
	}
	c.ensureLoaded()
	if err := c.renderer.SeekTo(index, 0); err != nil {
		c.logger.Debug().Err(err).Int("index", index).Msg("play track")
		return
	}
	c.persistProgress(0)
	c.setPlaying(true)
	c.trackChanged()
	c.extendRadio()
}

// setPlaying applies a play or pause request. Playing needs audio focus;
// StateChanged is emitted whether or not the request was applied.
func (c *Controller) setPlaying(play bool) {
	defer func() {
		c.fabric.Emit(bus.StateChanged{Playing: c.renderer.PlayWhenReady()})
	}()

	if !play {
		c.pause()
		c.focus.Abandon()
		return
	}
	if c.queue.Len() == 0 {
		return
	}
	if !c.focus.Request() {
		c.logger.Debug().Msg("audio focus denied")
		return
	}
	c.resumeOnGain = false
	if c.queue.CurrentIndex() < 0 {
		c.queue.SetCurrentIndex(0)
	}
	c.ensureLoaded()
	c.renderer.Play()
	if c.renderer.State() == player.Ready {
		c.apply(TriggerReadyPlay)
	}
}

// pause stops output, rewinding by the configured offset, and saves the
// position. Pausing while not playing does nothing.
func (c *Controller) pause() {
	if !c.renderer.PlayWhenReady() {
		return
	}
	c.renderer.Pause()
	c.apply(TriggerPause)

	pos := c.renderer.Position()
	if c.opts.PauseRewind > 0 && c.renderer.State() == player.Ready {
		pos = max(0, pos-c.opts.PauseRewind)
		if err := c.renderer.Seek(pos); err != nil {
			c.logger.Debug().Err(err).Msg("pause rewind")
		}
	}
	c.updateProgress(pos)
	c.persistProgress(pos)
}

// ensureLoaded hands the queue to the renderer if it has nothing to play.
func (c *Controller) ensureLoaded() {
	if c.queue.Len() == 0 {
		return
	}
	switch c.renderer.State() {
	case player.Idle:
		c.renderer.Load(c.queue)
		c.apply(TriggerBuffer)
		if idx := c.queue.CurrentIndex(); idx > 0 {
			_ = c.renderer.SeekTo(idx, 0)
		}
	case player.Ended:
		// Start over once everything was played.
		if err := c.renderer.SeekTo(0, 0); err == nil {
			c.apply(TriggerBuffer)
		}
	}
}

// resumeAfterGrowth continues playback when tracks arrive after the
// renderer ran out, and prepares a queue that was empty.
func (c *Controller) resumeAfterGrowth() {
	switch c.Status() {
	case StatusEnded, StatusError:
		if c.renderer.PlayWhenReady() && c.renderer.Next() {
			c.apply(TriggerBuffer)
		}
	case StatusIdle:
		c.ensureLoaded()
	}
}

func (c *Controller) previous() {
	if c.renderer.Position() > c.opts.PreviousRestart || !c.renderer.Previous() {
		if err := c.renderer.Seek(0); err != nil {
			c.logger.Debug().Err(err).Msg("restart track")
		}
		c.updateProgress(0)
	}
}

// seekPercent seeks to percent of the current track's selected upload.
func (c *Controller) seekPercent(percent float64) {
	cur := c.queue.Current()
	if cur == nil {
		return
	}
	percent = max(0, min(100, percent))
	dur := cur.Duration(c.opts.Quality)
	ms := math.Round(percent / 100 * float64(dur.Milliseconds()))
	target := time.Duration(ms) * time.Millisecond

	if err := c.renderer.Seek(target); err != nil {
		c.logger.Debug().Err(err).Dur("target", target).Msg("seek")
		if !errors.Is(err, player.ErrSeekOutOfRange) {
			c.fabric.Emit(bus.Toast{Message: errmsg.Format(errmsg.OpPlaybackSeek, err)})
		}
		return
	}
	c.updateProgress(target)
	if !c.renderer.PlayWhenReady() {
		c.persistProgress(target)
	}
}

func (c *Controller) shuffle() {
	started := c.queue.CurrentIndex() >= 0
	c.queue.Shuffle()
	// Without a current entry every source was rebuilt, including the one
	// the renderer may have prepared.
	if !started && c.renderer.State().HasMedia() {
		c.renderer.Load(c.queue)
		c.apply(TriggerBuffer)
	}
}

func (c *Controller) stopPlayback() {
	if c.renderer.PlayWhenReady() {
		c.focus.Abandon()
	}
	c.renderer.Stop()
	c.apply(TriggerStop)
	c.progress = bus.Progress{}
	c.persistProgress(0)
	c.fabric.Emit(bus.StateChanged{Playing: false})
	c.fabric.Emit(bus.PlaybackStopped{})
}

func (c *Controller) playRadio(spec bus.RadioSpec) {
	c.queue.Clear()
	c.stopPlayback()
	c.background(func(ctx context.Context) {
		_ = c.radio.Play(ctx, spec)
	})
}

// extendRadio fetches one more radio track when the queue is about to run
// out.
func (c *Controller) extendRadio() {
	if !c.radio.IsActive() || !c.queue.IsLast() {
		return
	}
	c.background(func(ctx context.Context) {
		c.radio.PrepareNextTrack(ctx, false)
	})
}

func (c *Controller) pin(tracks []track.Track) {
	if c.pinner == nil {
		c.fabric.Emit(bus.Toast{Message: errmsg.Format(errmsg.OpPin, ErrNoPinner)})
		return
	}
	c.background(func(ctx context.Context) {
		if err := c.pinner.Pin(ctx, tracks); err != nil {
			c.logger.Warn().Err(err).Msg("pin failed")
			c.fabric.Emit(bus.Toast{Message: errmsg.Format(errmsg.OpPin, err)})
		}
	})
}

// trackChanged announces the current track.
func (c *Controller) trackChanged() {
	cur := c.queue.Current()
	idx := max(c.queue.CurrentIndex(), 0)
	c.progress = bus.Progress{}
	if cur != nil {
		c.progress.Duration = cur.Duration(c.opts.Quality)
	}
	c.fabric.Emit(bus.TrackChanged{Track: cur, Index: idx})
	c.fabric.Send(bus.RefreshTrack{Track: cur})
}
