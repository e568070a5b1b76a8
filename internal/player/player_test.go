package player

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{ err error }

func (s *failingSource) Open(context.Context) (io.ReadCloser, error) { return nil, s.err }
func (s *failingSource) MimeType() string                            { return "audio/mpeg" }
func (s *failingSource) String() string                              { return "failing" }

type sliceList []Source

func (l sliceList) Len() int { return len(l) }

func (l sliceList) Source(i int) Source {
	if i < 0 || i >= len(l) {
		return nil
	}
	return l[i]
}

func (l sliceList) IndexOf(s Source) int {
	for i, src := range l {
		if src == s {
			return i
		}
	}
	return -1
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for renderer event")
		return Event{}
	}
}

func TestPlayer_OpenFailureEmitsError(t *testing.T) {
	p := New()
	defer p.Close()

	openErr := errors.New("network down")
	p.Load(sliceList{&failingSource{err: openErr}})

	e := nextEvent(t, p.Events())
	assert.Equal(t, EventBuffering, e.Kind)
	assert.Equal(t, 0, e.Index)

	e = nextEvent(t, p.Events())
	assert.Equal(t, EventError, e.Kind)
	require.ErrorIs(t, e.Err, openErr)
	assert.Equal(t, Idle, p.State())
}

func TestPlayer_SeekToOutOfRange(t *testing.T) {
	p := New()
	defer p.Close()

	assert.ErrorIs(t, p.SeekTo(0, 0), ErrSeekOutOfRange, "no playlist loaded")

	p.Load(sliceList{&failingSource{err: io.EOF}})
	assert.ErrorIs(t, p.SeekTo(3, 0), ErrSeekOutOfRange)
	assert.ErrorIs(t, p.SeekTo(0, -time.Second), ErrSeekOutOfRange)
	assert.ErrorIs(t, p.Seek(time.Second), ErrSeekOutOfRange, "nothing decoded yet")
}

func TestPlayer_NextPreviousBounds(t *testing.T) {
	p := New()
	defer p.Close()

	a := &failingSource{err: io.EOF}
	b := &failingSource{err: io.EOF}
	p.Load(sliceList{a, b})

	assert.False(t, p.Previous())
	assert.True(t, p.Next())
	assert.Equal(t, 1, p.CurrentIndex())
	assert.False(t, p.Next())

	p.SetRepeatMode(RepeatAll)
	assert.True(t, p.Next())
	assert.Equal(t, 0, p.CurrentIndex())
}

func TestPlayer_PlayPauseWithoutSource(t *testing.T) {
	p := New()
	defer p.Close()

	p.Play()
	assert.True(t, p.PlayWhenReady())
	p.Pause()
	assert.False(t, p.PlayWhenReady())
	assert.Equal(t, time.Duration(0), p.Position())

	p.SetVolume(0.5)
	p.Stop()
	assert.Equal(t, Idle, p.State())
}

func TestMock_TrackEndAdvances(t *testing.T) {
	m := NewMock()
	m.Load(sliceList{&failingSource{}, &failingSource{}})

	m.SimulateTrackEnd()
	assert.Equal(t, EventTrackEnded, (<-m.Events()).Kind)
	e := <-m.Events()
	assert.Equal(t, EventTracksChanged, e.Kind)
	assert.Equal(t, 1, e.Index)

	m.SimulateTrackEnd()
	assert.Equal(t, EventTrackEnded, (<-m.Events()).Kind)
	assert.Equal(t, EventEnded, (<-m.Events()).Kind)
	assert.Equal(t, Ended, m.State())
}

func TestMock_SeekToRejectsPastDuration(t *testing.T) {
	m := NewMock()
	m.Load(sliceList{&failingSource{}})
	m.SetDuration(time.Minute)

	assert.ErrorIs(t, m.SeekTo(0, 2*time.Minute), ErrSeekOutOfRange)
	require.NoError(t, m.SeekTo(0, 30*time.Second))
	assert.Equal(t, []SeekCall{{Index: 0, Position: 30 * time.Second}}, m.SeekCalls())
}
