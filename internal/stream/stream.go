// Package stream builds renderer sources for remote tracks. Streams are
// downloaded through the authenticated client into a disk cache and
// played from there.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/track"
)

// ErrNoUpload is returned when opening a track that has no playable upload.
var ErrNoUpload = errors.New("track has no playable upload")

// Factory creates cached, authenticated sources.
type Factory struct {
	client  *http.Client
	baseURL *url.URL
	dir     string
	quality track.Quality
	logger  zerolog.Logger

	downloads singleflight.Group
}

// NewFactory creates a factory resolving relative listen URLs against
// baseURL and caching streams under dir.
func NewFactory(client *http.Client, baseURL, dir string, quality track.Quality, logger zerolog.Logger) (*Factory, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "undertow-streams")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Factory{
		client:  downloadClient(client),
		baseURL: base,
		dir:     dir,
		quality: quality,
		logger:  logger.With().Str("component", "stream").Logger(),
	}, nil
}

// NewSource returns a source for the best upload of t. A track without
// uploads yields a source whose Open fails with ErrNoUpload.
func (f *Factory) NewSource(t track.Track) player.Source {
	up, ok := t.BestUpload(f.quality)
	if !ok {
		return &source{factory: f, trackID: t.ID}
	}
	return &source{
		factory:  f,
		trackID:  t.ID,
		url:      f.resolve(up.ListenURL),
		mimeType: up.MimeType,
		key:      cacheKey(t.ID, up),
	}
}

// Cached reports whether the best upload of t is already on disk.
func (f *Factory) Cached(t track.Track) bool {
	up, ok := t.BestUpload(f.quality)
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(f.dir, cacheKey(t.ID, up)))
	return err == nil
}

// downloadClient shares the transport and credentials of c but drops its
// overall timeout: a whole track is read through it, so downloads are
// bounded by their context instead.
func downloadClient(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	dc := *c
	dc.Timeout = 0
	return &dc
}

func (f *Factory) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return f.baseURL.ResolveReference(u).String()
}

// fetch downloads src into the cache unless it is already there.
func (f *Factory) fetch(ctx context.Context, s *source) (string, error) {
	path := filepath.Join(f.dir, s.key)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	_, err, _ := f.downloads.Do(s.key, func() (any, error) {
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, f.download(ctx, s.url, path)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (f *Factory) download(ctx context.Context, rawURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.dir, filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write stream: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store stream: %w", err)
	}

	f.logger.Debug().
		Str("file", filepath.Base(path)).
		Str("size", humanize.Bytes(uint64(n))).
		Msg("stream cached")
	return nil
}

func cacheKey(trackID int, up track.Upload) string {
	ext := ".mp3"
	if strings.Contains(strings.ToLower(up.MimeType), "flac") {
		ext = ".flac"
	}
	return fmt.Sprintf("%d-%d%s", trackID, up.Bitrate, ext)
}

// source is a track stream. Sources are compared by identity, so each
// queue entry gets its own.
type source struct {
	factory  *Factory
	trackID  int
	url      string
	mimeType string
	key      string
}

func (s *source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.url == "" {
		return nil, fmt.Errorf("track %d: %w", s.trackID, ErrNoUpload)
	}
	path, err := s.factory.fetch(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("track %d: %w", s.trackID, err)
	}
	return os.Open(path)
}

func (s *source) MimeType() string { return s.mimeType }

func (s *source) String() string { return fmt.Sprintf("track %d", s.trackID) }
