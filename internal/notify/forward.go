package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
)

const (
	appTitle     = "Undertow"
	toastTimeout = 4000
	callTimeout  = 2 * time.Second
)

// Forward shows Toast and PlaybackError events as desktop notifications
// until ctx is done or sub closes. Each new message replaces the previous
// one on screen.
func Forward(ctx context.Context, sub *bus.Subscription[bus.Event], n Notifier, logger zerolog.Logger) error {
	defer sub.Close()
	logger = logger.With().Str("component", "notify").Logger()

	var lastID uint32
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case e := <-sub.C:
			notif, ok := toNotification(e)
			if !ok {
				continue
			}
			notif.ReplacesID = lastID
			callCtx, cancel := context.WithTimeout(ctx, callTimeout)
			id, err := n.Notify(callCtx, notif)
			cancel()
			if err != nil {
				logger.Debug().Err(err).Msg("desktop notification")
				continue
			}
			lastID = id
		}
	}
}

func toNotification(e bus.Event) (Notification, bool) {
	switch e := e.(type) {
	case bus.Toast:
		return Notification{
			Title:   appTitle,
			Body:    e.Message,
			Timeout: toastTimeout,
			Urgency: UrgencyNormal,
		}, true
	case bus.PlaybackError:
		return Notification{
			Title:    appTitle + ": playback error",
			Body:     e.Message,
			Category: "x-undertow.playback.error",
			Timeout:  toastTimeout,
			Urgency:  UrgencyCritical,
		}, true
	}
	return Notification{}, false
}
