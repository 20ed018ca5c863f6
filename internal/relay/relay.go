// Package relay runs the per-message pipeline: authorize, persist,
// broadcast, notify. It is invoked once per inbound sendMessage event.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/eligibility"
	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/room"
	"github.com/chetan5734v/freelancer/internal/ws"
)

// ErrIneligible is returned when the sender is not allowed to message
// about the room's job. Nothing is persisted or broadcast.
var ErrIneligible = errors.New("sender not eligible to message")

// MessageStore persists ordered message threads keyed by room id.
type MessageStore interface {
	AppendMessage(ctx context.Context, roomID string, msg models.Message) (models.Message, error)
	Thread(ctx context.Context, roomID string) ([]models.Message, error)
}

// JobCatalog resolves jobs by id. A missing job is (nil, nil).
type JobCatalog interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

// Checker decides whether a non-owner may message about a job.
type Checker interface {
	Check(ctx context.Context, username, jobID string) eligibility.Result
}

// Notifier records a notification for the recipient and pushes it live.
type Notifier interface {
	Notify(ctx context.Context, recipient, title, body, kind, jobID, roomID string) (*models.Notification, error)
}

// Broadcaster fans events out to room members.
type Broadcaster interface {
	BroadcastRoom(roomID, event string, data any)
	BroadcastRoomExcept(roomID string, except *ws.Session, event string, data any)
}

// Relay wires the pipeline's collaborators together.
type Relay struct {
	store    MessageStore
	jobs     JobCatalog
	checker  Checker
	notifier Notifier
	hub      Broadcaster
	logger   zerolog.Logger
}

// New creates a Relay.
func New(store MessageStore, jobs JobCatalog, checker Checker, notifier Notifier, hub Broadcaster, logger zerolog.Logger) *Relay {
	return &Relay{
		store:    store,
		jobs:     jobs,
		checker:  checker,
		notifier: notifier,
		hub:      hub,
		logger:   logger,
	}
}

// HandleMessage runs the pipeline for one inbound chat message:
//
//  1. decode the room id and resolve its job
//  2. gate non-owner senders on eligibility (every message, not just
//     the first; the check is cheap and authorization must not be
//     cacheable by a client that never applied)
//  3. persist the message (the durability checkpoint: after this the
//     message counts as sent whatever happens downstream)
//  4. broadcast it to the room, sender's other sessions included
//  5. notify the counterparty, never the sender
//  6. clear the sender's typing indicator
//
// A room id that doesn't decode, or a job that doesn't resolve, flows
// through as a free-form conversation: persisted and broadcast but
// never eligibility-checked or notified. That keeps legacy rooms
// working; the Warn log makes the authorization bypass visible to
// operators instead of silent.
//
// Errors returned here have already been reported to the sender via
// messageError; callers only log them.
func (r *Relay) HandleMessage(ctx context.Context, sess *ws.Session, roomID string, msg models.Message) error {
	if msg.Sender == "" {
		msg.Sender = sess.Username
	}

	var job *models.Job
	id, err := room.Parse(roomID)
	switch {
	case err != nil:
		r.logger.Warn().Str("room", roomID).Msg("unparseable room id, relaying without eligibility check")
	default:
		job, err = r.jobs.GetJob(ctx, id.JobID)
		if err != nil {
			r.logger.Warn().Err(err).Str("job", id.JobID).Msg("job lookup failed, relaying without eligibility check")
			job = nil
		} else if job == nil {
			r.logger.Warn().Str("job", id.JobID).Str("room", roomID).Msg("room references unknown job, relaying without eligibility check")
		}
	}

	// Owner bypass: only the non-owner party is gated.
	if job != nil && msg.Sender != job.PostedBy {
		res := r.checker.Check(ctx, msg.Sender, id.JobID)
		if !res.Eligible {
			metrics.MessagesRejected.WithLabelValues("ineligible").Inc()
			sess.Send(ws.EventMessageError, res.Reason+" Apply for the job to start messaging.")
			return fmt.Errorf("%w: %s", ErrIneligible, res.Reason)
		}
	}

	stored, err := r.store.AppendMessage(ctx, roomID, msg)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues("store_error").Inc()
		r.logger.Error().Err(err).Str("room", roomID).Msg("failed to persist message")
		sess.Send(ws.EventMessageError, "Failed to save message")
		return err
	}
	metrics.MessagesRelayed.Inc()

	// The broadcast echoes the stored message verbatim, server-assigned
	// id included, so receivers dedup by identity.
	r.hub.BroadcastRoom(roomID, ws.EventNewMessage, stored)

	if job != nil {
		r.notifyRecipient(ctx, id, job, stored, roomID)
	}

	r.hub.BroadcastRoomExcept(roomID, sess, ws.EventUserStoppedTyping, ws.TypingEvent{Sender: stored.Sender})
	return nil
}

// notifyRecipient resolves the counterparty and fires the notification.
// Failures are logged and swallowed: the message is already persisted
// and broadcast, a lost notification must not undo that.
func (r *Relay) notifyRecipient(ctx context.Context, id room.ID, job *models.Job, msg models.Message, roomID string) {
	recipient := job.PostedBy
	if msg.Sender == job.PostedBy {
		recipient = id.Freelancer
	}
	if recipient == "" || recipient == msg.Sender {
		return
	}

	body := fmt.Sprintf("%s sent you a message about %q", msg.Sender, job.Title)
	if _, err := r.notifier.Notify(ctx, recipient, "New Message", body, models.NotifyMessage, id.JobID, roomID); err != nil {
		r.logger.Warn().Err(err).Str("recipient", recipient).Msg("failed to create message notification")
	}
}
