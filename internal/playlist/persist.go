package playlist

import (
	"encoding/json"
	"strconv"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

// persist saves tracks and cursor. Failures are logged and ignored.
func (q *Queue) persist() {
	q.mu.RLock()
	data, err := json.Marshal(q.tracks)
	q.mu.RUnlock()
	if err != nil {
		q.logger.Debug().Err(err).Msg(errmsg.Format(errmsg.OpQueueSave, err))
		return
	}
	if err := q.store.Set(state.KeyQueue, data); err != nil {
		q.logger.Debug().Err(err).Msg(errmsg.Format(errmsg.OpQueueSave, err))
	}
	q.persistCursor()
}

func (q *Queue) persistCursor() {
	q.mu.RLock()
	cur := q.current
	q.mu.RUnlock()
	if err := q.store.Set(state.KeyCurrent, []byte(strconv.Itoa(cur))); err != nil {
		q.logger.Debug().Err(err).Msg(errmsg.Format(errmsg.OpQueueSave, err))
	}
}

// restore loads a saved queue. Anything unreadable means nothing was saved.
func (q *Queue) restore() {
	data, err := q.store.Get(state.KeyQueue)
	if err != nil {
		q.logger.Debug().Err(err).Msg(errmsg.Format(errmsg.OpQueueLoad, err))
		return
	}
	if len(data) == 0 {
		return
	}

	var tracks []track.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		q.logger.Warn().Err(err).Msg(errmsg.Format(errmsg.OpQueueLoad, err))
		return
	}

	cur := -1
	if raw, err := q.store.Get(state.KeyCurrent); err == nil && len(raw) > 0 {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			cur = n
		}
	}
	if cur >= len(tracks) || cur < -1 {
		cur = -1
	}

	q.mu.Lock()
	q.tracks = tracks
	q.sources = q.buildSources(tracks)
	q.current = cur
	q.mu.Unlock()

	q.logger.Debug().Int("tracks", len(tracks)).Int("current", cur).Msg("queue restored")
}
