// radioprobe opens a radio session on the configured pod and prints the
// tracks it yields.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/pod"
	"github.com/llehouerou/undertow/internal/track"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	radioType := flag.String("type", "random", "radio type")
	relatedID := flag.String("id", "", "related object id")
	count := flag.Int("n", 5, "number of tracks to fetch")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := pod.NewClient(cfg.Pod.URL, pod.NewHTTPClient(ctx, cfg.Pod.Token), logger)

	session, err := client.CreateRadioSession(ctx, *radioType, *relatedID)
	if err != nil {
		logger.Fatal().Err(err).Str("type", *radioType).Msg("create radio session")
	}
	logger.Info().Int("session", session.ID).Str("type", *radioType).Msg("radio session created")

	quality := cfg.GetPlaybackConfig().Quality
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tARTIST\tTITLE\tLENGTH\tBITRATE")

	for i := range *count {
		id, err := client.NextRadioTrack(ctx, session)
		if err != nil {
			logger.Error().Err(err).Int("fetched", i).Msg("next radio track")
			break
		}
		t, err := client.Track(ctx, id)
		if err != nil {
			logger.Error().Err(err).Int("track", id).Msg("track details")
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", i+1, t.ID, t.Artist, t.Title, t.Duration(quality), bitrate(t, quality))
	}
	w.Flush()
}

func bitrate(t track.Track, q track.Quality) string {
	up, ok := t.BestUpload(q)
	if !ok || up.Bitrate <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(float64(up.Bitrate), 0, "bps")
}
