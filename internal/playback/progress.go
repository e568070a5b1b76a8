package playback

import (
	"errors"
	"strconv"
	"time"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/state"
)

// tick publishes progress while playing. The snapshot is left untouched
// otherwise.
func (c *Controller) tick() {
	if !c.renderer.PlayWhenReady() || c.queue.Len() == 0 {
		return
	}
	c.updateProgress(c.renderer.Position())
	c.fabric.Emit(bus.ProgressChanged{Progress: c.progress})
}

// updateProgress recomputes the snapshot for pos in the current track.
func (c *Controller) updateProgress(pos time.Duration) {
	var dur time.Duration
	if cur := c.queue.Current(); cur != nil {
		dur = cur.Duration(c.opts.Quality)
	}
	c.progress = snapshot(pos, dur)
}

func snapshot(pos, dur time.Duration) bus.Progress {
	p := bus.Progress{Position: max(0, pos), Duration: dur}
	if dur > 0 {
		p.Percent = min(100, float64(p.Position)/float64(dur)*100)
	}
	return p
}

// persistProgress saves pos in milliseconds. Failures are ignored.
func (c *Controller) persistProgress(pos time.Duration) {
	v := strconv.FormatInt(pos.Milliseconds(), 10)
	if err := c.store.Set(state.KeyProgress, []byte(v)); err != nil {
		c.logger.Debug().Err(err).Msg("persist progress")
	}
}

func (c *Controller) savedProgress() time.Duration {
	data, err := c.store.Get(state.KeyProgress)
	if err != nil || len(data) == 0 {
		return 0
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// restore hands the saved queue to the renderer, paused at the saved
// position. A position the track cannot seek to counts as none.
func (c *Controller) restore() {
	if c.queue.Len() == 0 {
		return
	}

	c.renderer.Load(c.queue)
	c.apply(TriggerBuffer)

	idx := max(c.queue.CurrentIndex(), 0)
	pos := c.savedProgress()
	if err := c.renderer.SeekTo(idx, pos); err != nil {
		if !errors.Is(err, player.ErrSeekOutOfRange) {
			c.logger.Warn().Err(err).Msg(errmsg.Format(errmsg.OpPlaybackRestore, err))
		}
		pos = 0
		_ = c.renderer.SeekTo(idx, 0)
	}
	c.updateProgress(pos)

	cur := c.queue.Current()
	c.fabric.Emit(bus.TrackChanged{Track: cur, Index: idx})
	c.logger.Debug().Int("index", idx).Dur("position", pos).Msg("playback restored")
}
