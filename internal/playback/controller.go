// Package playback implements the playback controller: the loop that turns
// commands into queue and renderer actions and renderer callbacks into
// events.
package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/focus"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/playlist"
	"github.com/llehouerou/undertow/internal/state"
)

// Controller drives the renderer from the command bus.
//
// All queue and renderer mutations happen on the goroutine running Run.
// Radio fetches and pinning run in background goroutines and report back
// through the bus.
type Controller struct {
	fabric   *bus.Fabric
	queue    *playlist.Queue
	renderer player.Renderer
	radio    Radio
	focus    focus.Arbiter
	store    state.Store
	pinner   Pinner
	opts     Options
	logger   zerolog.Logger

	commands *bus.Subscription[bus.Command]
	status   atomic.Int32

	// Owned by the Run goroutine.
	resumeOnGain bool
	ducked       bool
	progress     bus.Progress

	ctx context.Context
	bg  sync.WaitGroup
}

// Config groups the controller collaborators.
type Config struct {
	Fabric   *bus.Fabric
	Queue    *playlist.Queue
	Renderer player.Renderer
	Radio    Radio
	Focus    focus.Arbiter // nil means always granted
	Store    state.Store
	Pinner   Pinner // optional
	Options  Options
	Logger   zerolog.Logger
}

// New creates a controller. Call Run to start it.
func New(cfg Config) *Controller {
	arbiter := cfg.Focus
	if arbiter == nil {
		arbiter = focus.AlwaysGranted{}
	}
	c := &Controller{
		fabric:   cfg.Fabric,
		queue:    cfg.Queue,
		renderer: cfg.Renderer,
		radio:    cfg.Radio,
		focus:    arbiter,
		store:    cfg.Store,
		pinner:   cfg.Pinner,
		opts:     cfg.Options.withDefaults(),
		logger:   cfg.Logger.With().Str("component", "playback").Logger(),
		ctx:      context.Background(),
	}
	// Subscribe now so commands sent before Run starts are kept.
	c.commands = c.fabric.Commands.Subscribe()
	c.status.Store(int32(StatusIdle))
	return c
}

// Status returns the current playback status.
func (c *Controller) Status() Status {
	return Status(c.status.Load())
}

func (c *Controller) apply(t Trigger) {
	prev := c.Status()
	next := Transition(prev, t)
	if next != prev {
		c.status.Store(int32(next))
		c.logger.Debug().Stringer("from", prev).Stringer("to", next).Stringer("trigger", t).Msg("status")
	}
}

// Run restores the saved session and processes commands, renderer
// callbacks, focus changes and requests until ctx is done or the fabric
// is closed.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer c.bg.Wait()
	defer cancel()
	c.ctx = ctx

	commands := c.commands
	defer commands.Close()

	c.restore()

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	c.logger.Info().Int("tracks", c.queue.Len()).Msg("playback controller started")

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-commands.Done():
			c.shutdown()
			return nil
		case cmd := <-commands.C:
			c.handleCommand(cmd)
		case e := <-c.renderer.Events():
			c.handleRendererEvent(e)
		case change := <-c.focus.Changes():
			c.handleFocusChange(change)
		case env := <-c.fabric.Requests.Serve():
			env.Reply(c.answer(env.Request))
		case <-ticker.C:
			c.tick()
		}
	}
}

// answer replies to a request from in-memory state.
func (c *Controller) answer(req bus.Request) bus.Response {
	switch req.(type) {
	case bus.GetState:
		return bus.State{Playing: c.renderer.PlayWhenReady()}
	case bus.GetQueue:
		return bus.Queue{Tracks: c.queue.Tracks()}
	case bus.GetCurrentTrack:
		return bus.CurrentTrack{Track: c.queue.Current()}
	case bus.GetCurrentTrackIndex:
		return bus.CurrentTrackIndex{Index: c.queue.CurrentIndex()}
	case bus.GetProgress:
		return bus.ProgressSnapshot{Progress: c.progress}
	default:
		c.logger.Warn().Type("request", req).Msg("unknown request")
		return nil
	}
}

func (c *Controller) shutdown() {
	if c.renderer.PlayWhenReady() {
		c.persistProgress(c.renderer.Position())
	}
	c.focus.Abandon()
	c.logger.Info().Msg("playback controller stopped")
}

// background runs fn outside the loop. Run waits for it before returning.
func (c *Controller) background(fn func(ctx context.Context)) {
	ctx := c.ctx
	c.bg.Go(func() { fn(ctx) })
}
