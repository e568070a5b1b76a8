package bus

import (
	"context"
	"fmt"

	"github.com/llehouerou/undertow/internal/track"
)

// Request asks the playback controller for its current state.
type Request interface {
	request()
}

// Response answers a Request.
type Response interface {
	response()
}

type (
	GetState             struct{}
	GetQueue             struct{}
	GetCurrentTrack      struct{}
	GetCurrentTrackIndex struct{}
	GetProgress          struct{}
)

func (GetState) request()             {}
func (GetQueue) request()             {}
func (GetCurrentTrack) request()      {}
func (GetCurrentTrackIndex) request() {}
func (GetProgress) request()          {}

// State answers GetState.
type State struct {
	Playing bool
}

// Queue answers GetQueue.
type Queue struct {
	Tracks []track.Track
}

// CurrentTrack answers GetCurrentTrack. Track is nil for an empty queue.
type CurrentTrack struct {
	Track *track.Track
}

// CurrentTrackIndex answers GetCurrentTrackIndex.
type CurrentTrackIndex struct {
	Index int
}

// ProgressSnapshot answers GetProgress.
type ProgressSnapshot struct {
	Progress Progress
}

func (State) response()             {}
func (Queue) response()             {}
func (CurrentTrack) response()      {}
func (CurrentTrackIndex) response() {}
func (ProgressSnapshot) response()  {}

// ask sends req and type-asserts the reply.
func ask[R Response](ctx context.Context, f *Fabric, req Request) (R, error) {
	var zero R
	resp, err := f.Requests.Ask(ctx, req)
	if err != nil {
		return zero, err
	}
	r, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("unexpected response %T to %T", resp, req)
	}
	return r, nil
}

// IsPlaying asks whether playback is active.
func (f *Fabric) IsPlaying(ctx context.Context) (bool, error) {
	r, err := ask[State](ctx, f, GetState{})
	return r.Playing, err
}

// Tracks asks for the queue contents.
func (f *Fabric) Tracks(ctx context.Context) ([]track.Track, error) {
	r, err := ask[Queue](ctx, f, GetQueue{})
	return r.Tracks, err
}

// CurrentTrack asks for the current track, nil if the queue is empty.
func (f *Fabric) CurrentTrack(ctx context.Context) (*track.Track, error) {
	r, err := ask[CurrentTrack](ctx, f, GetCurrentTrack{})
	return r.Track, err
}

// CurrentTrackIndex asks for the queue cursor.
func (f *Fabric) CurrentTrackIndex(ctx context.Context) (int, error) {
	r, err := ask[CurrentTrackIndex](ctx, f, GetCurrentTrackIndex{})
	if err != nil {
		return -1, err
	}
	return r.Index, nil
}

// Progress asks for the last progress snapshot.
func (f *Fabric) Progress(ctx context.Context) (Progress, error) {
	r, err := ask[ProgressSnapshot](ctx, f, GetProgress{})
	return r.Progress, err
}
