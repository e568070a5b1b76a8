package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/focus"
	"github.com/llehouerou/undertow/internal/lastfm"
	"github.com/llehouerou/undertow/internal/mpris"
	"github.com/llehouerou/undertow/internal/notify"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/pod"
	"github.com/llehouerou/undertow/internal/radio"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: search XDG config dir and ./config.toml)")
	radioType := flag.String("radio", "", "start a radio of this type on launch (e.g. random, favorites, artist)")
	radioID := flag.String("radio-id", "", "related object id for the -radio type")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var spec *bus.RadioSpec
	if *radioType != "" {
		spec = &bus.RadioSpec{Type: *radioType, RelatedObjectID: *radioID}
	}

	if err := run(ctx, cfg, spec, logger); err != nil {
		logger.Error().Err(err).Msg(errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// run wires the engine and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, spec *bus.RadioSpec, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	pb := cfg.GetPlaybackConfig()

	store, err := state.Open(cfg.Cache.DBPath)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()
	if err := store.DeleteOldPendingScrobbles(lastfm.MaxPendingAge, lastfm.MaxAttempts); err != nil {
		logger.Warn().Err(err).Msg("prune pending scrobbles")
	}

	fabric := bus.New()
	defer fabric.Close()

	httpClient := pod.NewHTTPClient(ctx, cfg.Pod.Token)
	podClient := pod.NewClient(cfg.Pod.URL, httpClient, logger)

	factory, err := stream.NewFactory(httpClient, cfg.Pod.URL, cfg.GetCacheDir(), pb.Quality, logger)
	if err != nil {
		return err
	}

	renderer := player.New()
	defer renderer.Close()

	queue := playlist.NewQueue(store, factory, fabric, logger)
	radioMgr := radio.New(podClient, store, fabric, logger)

	ctrl := playback.New(playback.Config{
		Fabric:   fabric,
		Queue:    queue,
		Renderer: renderer,
		Radio:    radioMgr,
		Focus:    focus.AlwaysGranted{},
		Store:    store,
		Pinner:   factory,
		Options: playback.Options{
			Quality:         pb.Quality,
			PauseRewind:     pb.PauseRewind,
			DuckVolume:      pb.DuckVolume,
			PreviousRestart: pb.PreviousRestart,
		},
		Logger: logger,
	})

	var scrobbleAPI lastfm.API
	if cfg.HasLastfmConfig() {
		client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
		client.SetSessionKey(cfg.Lastfm.SessionKey)
		scrobbleAPI = client
	}
	scrobbler := lastfm.NewScrobbler(scrobbleAPI, podClient, store, pb.Quality, logger)
	scrobbleEvents := fabric.Events.Subscribe()

	notifier, err := notify.New()
	if err != nil {
		return err
	}
	notifyEvents := fabric.Events.Subscribe()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ctrl.Run(ctx) })
	g.Go(func() error { return scrobbler.Run(ctx, scrobbleEvents) })
	g.Go(func() error { return notify.Forward(ctx, notifyEvents, notifier, logger) })
	if cfg.MprisEnabled() {
		adapter := mpris.New(fabric, logger)
		g.Go(func() error { return adapter.Run(ctx) })
	}
	g.Go(func() error {
		if err := radioMgr.RefreshFavorites(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg(errmsg.Format(errmsg.OpFavoritesLoad, err))
		}
		return nil
	})

	if spec != nil {
		fabric.Send(bus.PlayRadio{Spec: *spec})
	}

	logger.Info().Str("pod", cfg.Pod.URL).Stringer("quality", pb.Quality).Msg("undertow started")
	return g.Wait()
}
