// Package pod talks to the remote music server: radio sessions, track
// details, favorites and listening history.
package pod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/llehouerou/undertow/internal/track"
)

// ErrStatus is wrapped by errors for unexpected HTTP status codes.
var ErrStatus = errors.New("unexpected status")

// SessionCookie is the cookie the pod binds radio sessions to.
const SessionCookie = "sessionid"

const requestTimeout = 30 * time.Second

// NewHTTPClient returns a client that authenticates with a bearer token.
// An empty token yields an anonymous client.
func NewHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: requestTimeout}
	}
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	c.Timeout = requestTimeout
	return c
}

// Client provides access to the pod API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a pod API client. httpClient carries authentication.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With().Str("component", "pod").Logger(),
	}
}

// BaseURL returns the pod root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateRadioSession opens a radio session of radioType, optionally tied
// to relatedObjectID.
func (c *Client) CreateRadioSession(ctx context.Context, radioType, relatedObjectID string) (Session, error) {
	body := sessionRequest{RadioType: radioType, RelatedObjectID: relatedObjectID}
	var result sessionResponse
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/radios/sessions/", body, "", &result)
	if err != nil {
		return Session{}, fmt.Errorf("create radio session: %w", err)
	}

	s := Session{ID: result.ID}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			s.Cookie = ck.Value
		}
	}
	c.logger.Debug().Int("session", s.ID).Str("type", radioType).Msg("radio session created")
	return s, nil
}

// NextRadioTrack returns the id of the next track of session.
func (c *Client) NextRadioTrack(ctx context.Context, s Session) (int, error) {
	var result nextTrackResponse
	_, err := c.do(ctx, http.MethodPost, "/api/v1/radios/tracks/", nextTrackRequest{Session: s.ID}, s.Cookie, &result)
	if err != nil {
		return 0, fmt.Errorf("next radio track: %w", err)
	}
	return result.Track.ID, nil
}

// Track fetches the details of a track.
func (c *Client) Track(ctx context.Context, id int) (track.Track, error) {
	var result trackResponse
	_, err := c.do(ctx, http.MethodGet, "/api/v1/tracks/"+strconv.Itoa(id)+"/", nil, "", &result)
	if err != nil {
		return track.Track{}, fmt.Errorf("get track %d: %w", id, err)
	}
	return result.toTrack(), nil
}

// FavoriteTrackIDs returns the ids of the user's favorite tracks.
func (c *Client) FavoriteTrackIDs(ctx context.Context) ([]int, error) {
	var result favoritesResponse
	_, err := c.do(ctx, http.MethodGet, "/api/v1/favorites/tracks/all/?scope=me", nil, "", &result)
	if err != nil {
		return nil, fmt.Errorf("get favorites: %w", err)
	}
	ids := make([]int, 0, len(result.Results))
	for _, r := range result.Results {
		ids = append(ids, r.Track)
	}
	return ids, nil
}

// RecordListening adds a track to the user's listening history.
func (c *Client) RecordListening(ctx context.Context, trackID int) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/history/listenings/", listeningRequest{Track: trackID}, "", nil)
	if err != nil {
		return fmt.Errorf("record listening: %w", err)
	}
	return nil
}

// do sends a JSON request and decodes the response into result when
// non-nil. The response body is closed before returning.
func (c *Client) do(ctx context.Context, method, path string, body any, cookie string, result any) (*http.Response, error) {
	reqBody := io.Reader(http.NoBody)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}
