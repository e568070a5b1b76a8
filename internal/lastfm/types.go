package lastfm

import (
	"time"

	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/track"
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// fromTrack builds the scrobble payload for t started at startedAt.
func fromTrack(t track.Track, q track.Quality, startedAt time.Time) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    t.Artist,
		Track:     t.Title,
		Album:     t.Album,
		Duration:  t.Duration(q),
		Timestamp: startedAt,
	}
}

func fromPending(p state.PendingScrobble) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    p.Artist,
		Track:     p.Track,
		Album:     p.Album,
		Duration:  time.Duration(p.DurationSecs) * time.Second,
		Timestamp: p.Timestamp,
	}
}

func (t ScrobbleTrack) pending() state.PendingScrobble {
	return state.PendingScrobble{
		Artist:       t.Artist,
		Track:        t.Track,
		Album:        t.Album,
		DurationSecs: int(t.Duration.Seconds()),
		Timestamp:    t.Timestamp,
	}
}

// ScrobbleState tracks the scrobbling status of the current track.
type ScrobbleState struct {
	TrackID        int       // current track (for dedup)
	StartedAt      time.Time // When playback started
	NowPlayingSent bool      // Whether now playing was sent
}
