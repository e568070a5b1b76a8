//go:build linux

package mpris

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

// Adapter exports the playback engine over MPRIS.
type Adapter struct {
	bridge *bridge
	sub    *bus.Subscription[bus.Event]
	server *server.Server
	logger zerolog.Logger
}

// New creates an adapter. Call Run to export it on the session bus.
func New(f *bus.Fabric, logger zerolog.Logger) *Adapter {
	logger = logger.With().Str("component", "mpris").Logger()
	b := newBridge(f, logger)
	return &Adapter{
		bridge: b,
		sub:    f.Events.Subscribe(),
		server: server.NewServer("undertow", &rootAdapter{}, &playerAdapter{bridge: b}),
		logger: logger,
	}
}

// Run serves D-Bus calls until ctx is done or the event bus closes.
func (a *Adapter) Run(ctx context.Context) error {
	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn().Err(err).Msg("mpris server stopped")
		}
	}()
	a.logger.Info().Msg("mpris adapter started")

	a.bridge.watch(ctx, a.sub)

	if err := a.server.Stop(); err != nil {
		return fmt.Errorf("stop mpris server: %w", err)
	}
	return nil
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - the daemon manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Undertow", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https", "http"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	bridge *bridge
}

func (p *playerAdapter) Next() error {
	p.bridge.next()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.bridge.previous()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.bridge.pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.bridge.toggle()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.bridge.pause()
	return nil
}

func (p *playerAdapter) Play() error {
	p.bridge.play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.bridge.seekBy(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.bridge.setPosition(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.bridge.status() {
	case StatusPlaying:
		return types.PlaybackStatusPlaying, nil
	case StatusPaused:
		return types.PlaybackStatusPaused, nil
	case StatusStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	t := p.bridge.track()
	if t == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.ID)),
		Length:  types.Microseconds(t.Duration(track.QualityMaxBitrate).Microseconds()),
		Title:   t.Title,
		Artist:  []string{t.Artist},
		Album:   t.Album,
		ArtUrl:  t.CoverURL,
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume follows audio focus, not the media controls
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.bridge.position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.bridge.canGoNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.bridge.canGoPrevious(), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.bridge.canPlay(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.bridge.repeatMode() {
	case player.RepeatOne:
		return types.LoopStatusTrack, nil
	case player.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case player.RepeatOff:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.bridge.setRepeatMode(player.RepeatOff)
	case types.LoopStatusTrack:
		p.bridge.setRepeatMode(player.RepeatOne)
	case types.LoopStatusPlaylist:
		p.bridge.setRepeatMode(player.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.bridge.shuffle(), nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.bridge.setShuffle(shuffle)
	return nil
}

func formatTrackID(id int) string {
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", id)
}
