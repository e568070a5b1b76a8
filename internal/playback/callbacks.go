package playback

import (
	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/focus"
	"github.com/llehouerou/undertow/internal/player"
)

func (c *Controller) handleRendererEvent(e player.Event) {
	switch e.Kind {
	case player.EventBuffering:
		c.apply(TriggerBuffer)
		c.fabric.Emit(bus.Buffering{Active: true})

	case player.EventReady:
		if c.renderer.PlayWhenReady() {
			c.apply(TriggerReadyPlay)
		} else {
			c.apply(TriggerReadyPause)
		}
		c.fabric.Emit(bus.Buffering{Active: false})
		// Covers the first radio track, queued while the fetch that
		// produced it still held the radio guard.
		c.extendRadio()

	case player.EventTrackEnded:
		if t := c.queue.Track(e.Index); t != nil {
			c.fabric.Emit(bus.TrackFinished{Track: *t})
		}

	case player.EventTracksChanged:
		if e.Index == c.queue.CurrentIndex() {
			return
		}
		if !c.queue.SetCurrentIndex(e.Index) {
			return
		}
		c.persistProgress(0)
		c.trackChanged()
		c.extendRadio()

	case player.EventEnded:
		c.apply(TriggerFinish)
		c.persistProgress(0)
		c.fabric.Emit(bus.PlaybackStopped{})
		c.extendRadio()

	case player.EventError:
		c.logger.Warn().Err(e.Err).Int("index", e.Index).Msg("renderer error")
		c.apply(TriggerFail)
		c.fabric.Emit(bus.PlaybackError{Message: errmsg.Format(errmsg.OpPlaybackStart, e.Err)})
		if c.renderer.PlayWhenReady() && c.renderer.Next() {
			c.apply(TriggerBuffer)
			return
		}
		c.extendRadio()
	}
}

// handleFocusChange reacts to the arbiter revoking or returning focus.
func (c *Controller) handleFocusChange(change focus.Change) {
	c.logger.Debug().Stringer("change", change).Msg("audio focus")

	switch change {
	case focus.Gain:
		if c.ducked {
			c.renderer.SetVolume(1)
			c.ducked = false
		}
		if c.resumeOnGain {
			c.resumeOnGain = false
			c.renderer.Play()
			c.apply(TriggerPlay)
			c.fabric.Emit(bus.StateChanged{Playing: true})
		}

	case focus.Loss:
		c.resumeOnGain = false
		c.pause()
		c.focus.Abandon()
		c.fabric.Emit(bus.StateChanged{Playing: false})

	case focus.LossTransient:
		c.resumeOnGain = c.renderer.PlayWhenReady()
		c.pause()
		c.fabric.Emit(bus.StateChanged{Playing: false})

	case focus.LossTransientCanDuck:
		if c.renderer.PlayWhenReady() {
			c.renderer.SetVolume(c.opts.DuckVolume)
			c.ducked = true
		}
	}
}
