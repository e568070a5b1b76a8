package stream

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/undertow/internal/track"
)

// pinWorkers bounds concurrent downloads while pinning.
const pinWorkers = 2

// Pin downloads tracks into the cache so they play without the network.
// Tracks without an upload are skipped. The first download error is
// returned after every download has finished.
func (f *Factory) Pin(ctx context.Context, tracks []track.Track) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pinWorkers)

	for _, t := range tracks {
		src, ok := f.NewSource(t).(*source)
		if !ok || src.url == "" {
			continue
		}
		g.Go(func() error {
			if _, err := f.fetch(ctx, src); err != nil {
				return fmt.Errorf("pin track %d: %w", t.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	f.logger.Info().Int("tracks", len(tracks)).Msg("tracks pinned")
	return nil
}
