package lastfm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

const (
	// minScrobbleLength is the shortest track Last.fm accepts.
	minScrobbleLength = 30 * time.Second
	retryInterval     = 5 * time.Minute

	// MaxAttempts is how often a pending scrobble is retried before it
	// is dropped.
	MaxAttempts = 10
	// MaxPendingAge is the oldest timestamp Last.fm still accepts.
	MaxPendingAge = 14 * 24 * time.Hour
)

// API is the Last.fm surface the scrobbler uses.
type API interface {
	UpdateNowPlaying(track ScrobbleTrack) error
	Scrobble(track ScrobbleTrack) error
	ScrobbleBatch(tracks []ScrobbleTrack) error
}

// Listenings records plays in the pod's listening history.
type Listenings interface {
	RecordListening(ctx context.Context, trackID int) error
}

// PendingStore keeps scrobbles that could not be submitted.
type PendingStore interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
}

// Scrobbler turns playback events into listen-count bookkeeping: Last.fm
// now-playing and scrobbles, and pod listenings. Either sink may be nil.
type Scrobbler struct {
	api        API
	listenings Listenings
	pending    PendingStore
	quality    track.Quality
	logger     zerolog.Logger
	now        func() time.Time

	current ScrobbleState
}

// NewScrobbler creates a scrobbler. pending may be nil when api is nil.
func NewScrobbler(api API, listenings Listenings, pending PendingStore, q track.Quality, logger zerolog.Logger) *Scrobbler {
	return &Scrobbler{
		api:        api,
		listenings: listenings,
		pending:    pending,
		quality:    q,
		logger:     logger.With().Str("component", "scrobbler").Logger(),
		now:        time.Now,
	}
}

// Run consumes events from sub until ctx is done or the subscription
// closes. Pending scrobbles are retried at start and periodically.
func (s *Scrobbler) Run(ctx context.Context, sub *bus.Subscription[bus.Event]) error {
	defer sub.Close()

	s.retryPending()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case <-ticker.C:
			s.retryPending()
		case e := <-sub.C:
			s.handle(ctx, e)
		}
	}
}

func (s *Scrobbler) handle(ctx context.Context, e bus.Event) {
	switch e := e.(type) {
	case bus.TrackChanged:
		if e.Track != nil {
			s.nowPlaying(*e.Track)
		}
	case bus.TrackFinished:
		s.finished(ctx, e.Track)
	}
}

func (s *Scrobbler) nowPlaying(t track.Track) {
	if s.current.TrackID == t.ID && s.current.NowPlayingSent {
		return
	}
	s.current = ScrobbleState{TrackID: t.ID, StartedAt: s.now()}
	if s.api == nil {
		return
	}
	if err := s.api.UpdateNowPlaying(fromTrack(t, s.quality, s.current.StartedAt)); err != nil {
		s.logger.Debug().Err(err).Int("track", t.ID).Msg("now playing")
		return
	}
	s.current.NowPlayingSent = true
}

func (s *Scrobbler) finished(ctx context.Context, t track.Track) {
	if s.listenings != nil {
		if err := s.listenings.RecordListening(ctx, t.ID); err != nil {
			s.logger.Warn().Err(err).Int("track", t.ID).Msg(errmsg.Format(errmsg.OpListening, err))
		}
	}

	startedAt := s.startedAt(t)
	s.current = ScrobbleState{}

	if s.api == nil {
		return
	}
	st := fromTrack(t, s.quality, startedAt)
	if st.Duration < minScrobbleLength {
		return
	}
	if err := s.api.Scrobble(st); err != nil {
		s.logger.Warn().Err(err).Int("track", t.ID).Msg(errmsg.Format(errmsg.OpScrobble, err))
		s.queue(st)
		return
	}
	s.logger.Debug().Int("track", t.ID).Msg("scrobbled")
}

// startedAt returns when t started, falling back to its length ago.
func (s *Scrobbler) startedAt(t track.Track) time.Time {
	if s.current.TrackID == t.ID && !s.current.StartedAt.IsZero() {
		return s.current.StartedAt
	}
	return s.now().Add(-t.Duration(s.quality))
}

func (s *Scrobbler) queue(st ScrobbleTrack) {
	if s.pending == nil {
		return
	}
	if err := s.pending.AddPendingScrobble(st.pending()); err != nil {
		s.logger.Debug().Err(err).Msg("queue scrobble")
	}
}

// retryPending submits queued scrobbles in one batch. Entries that failed
// too often are dropped.
func (s *Scrobbler) retryPending() {
	if s.api == nil || s.pending == nil {
		return
	}
	pending, err := s.pending.GetPendingScrobbles()
	if err != nil {
		s.logger.Debug().Err(err).Msg("load pending scrobbles")
		return
	}

	batch := make([]state.PendingScrobble, 0, min(len(pending), maxBatch))
	for _, p := range pending {
		if p.Attempts >= MaxAttempts {
			_ = s.pending.DeletePendingScrobble(p.ID)
			continue
		}
		if len(batch) < maxBatch {
			batch = append(batch, p)
		}
	}
	if len(batch) == 0 {
		return
	}

	tracks := make([]ScrobbleTrack, len(batch))
	for i, p := range batch {
		tracks[i] = fromPending(p)
	}

	if err := s.api.ScrobbleBatch(tracks); err != nil {
		s.logger.Debug().Err(err).Int("count", len(batch)).Msg("retry scrobbles")
		for _, p := range batch {
			_ = s.pending.UpdatePendingScrobbleAttempt(p.ID, err.Error())
		}
		return
	}
	for _, p := range batch {
		_ = s.pending.DeletePendingScrobble(p.ID)
	}
	s.logger.Info().Int("count", len(batch)).Msg("pending scrobbles submitted")
}
