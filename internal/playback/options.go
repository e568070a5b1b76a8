package playback

import (
	"context"
	"errors"
	"time"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/track"
)

// ErrNoPinner is reported when pinning is requested without a download
// manager.
var ErrNoPinner = errors.New("no download manager configured")

// Options tune the controller.
type Options struct {
	Quality         track.Quality
	PauseRewind     time.Duration // rewound on every pause
	DuckVolume      float64       // output level while ducked
	PreviousRestart time.Duration // Previous restarts the track past this position
	TickInterval    time.Duration // progress publication period
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Quality:         track.QualityMaxBitrate,
		DuckVolume:      0.2,
		PreviousRestart: 5 * time.Second,
		TickInterval:    time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PauseRewind < 0 {
		o.PauseRewind = 0
	}
	if o.DuckVolume <= 0 || o.DuckVolume > 1 {
		o.DuckVolume = d.DuckVolume
	}
	if o.PreviousRestart <= 0 {
		o.PreviousRestart = d.PreviousRestart
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	return o
}

// Radio is the radio session manager as seen by the controller.
type Radio interface {
	IsActive() bool
	Play(ctx context.Context, spec bus.RadioSpec) error
	Stop()
	PrepareNextTrack(ctx context.Context, first bool) bool
}

// Pinner keeps tracks available offline.
type Pinner interface {
	Pin(ctx context.Context, tracks []track.Track) error
}
