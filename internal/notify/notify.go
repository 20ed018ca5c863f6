// Package notify creates durable notification records and pushes them
// to connected clients.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
)

// Store persists notification records.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// Pusher delivers a payload to connected sessions. Implemented by
// ws.Hub.
type Pusher interface {
	BroadcastAll(event string, data any)
}

// pushEvent is the websocket event name for live notification pushes.
// Kept here rather than importing the ws package so notify stays
// transport-agnostic.
const pushEvent = "newNotification"

// Notifier persists notifications, then pushes them live. Persistence
// is the source of truth a client re-syncs from on reconnect; the push
// is best effort and at most once.
type Notifier struct {
	store  Store
	pusher Pusher
	logger zerolog.Logger
}

// New creates a Notifier. pusher may be nil, in which case
// notifications are only persisted.
func New(store Store, pusher Pusher, logger zerolog.Logger) *Notifier {
	return &Notifier{store: store, pusher: pusher, logger: logger}
}

// Notify records a notification for recipient and emits it to all
// connected sessions. The record is created exactly once per call;
// jobID and roomID are optional context.
func (n *Notifier) Notify(ctx context.Context, recipient, title, body, kind, jobID, roomID string) (*models.Notification, error) {
	created, err := n.store.CreateNotification(ctx, &models.Notification{
		Username: recipient,
		Title:    title,
		Message:  body,
		Type:     kind,
		JobID:    jobID,
		RoomID:   roomID,
	})
	if err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(kind).Inc()

	if n.pusher != nil {
		n.pusher.BroadcastAll(pushEvent, created)
	}

	n.logger.Debug().
		Str("recipient", recipient).
		Str("type", kind).
		Str("title", title).
		Msg("notification created")
	return created, nil
}
