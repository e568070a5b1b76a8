// Package notify forwards user-facing playback messages to desktop
// notifications via D-Bus.
package notify

import "context"

// Urgency is the freedesktop notification urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string
	Category   string // freedesktop category hint, optional
	Timeout    int32  // ms, -1 = server default, 0 = never expire
	ReplacesID uint32 // 0 = new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its server id. A notifier without a
	// notification server returns 0 and nil.
	Notify(ctx context.Context, n Notification) (uint32, error)
	// Close withdraws a notification.
	Close(ctx context.Context, id uint32) error
}

// nopNotifier drops everything.
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) (uint32, error) { return 0, nil }

func (nopNotifier) Close(context.Context, uint32) error { return nil }
