package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/room"
	"github.com/chetan5734v/freelancer/internal/ws"
)

// MessagesRequest is the dual-purpose thread request: with a message it
// appends and returns the updated thread, without one it just fetches.
type MessagesRequest struct {
	RoomID  string          `json:"roomId"`
	Message *models.Message `json:"message,omitempty"`
}

// ThreadResponse is a room's message history.
type ThreadResponse struct {
	RoomID   string           `json:"roomId"`
	Messages []models.Message `json:"messages"`
}

// Messages handles the append-or-fetch thread endpoint. The append path
// enforces the same eligibility gate as the websocket relay; HTTP must
// not be a way around it.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	var req MessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RoomID == "" {
		h.Error(w, http.StatusBadRequest, "roomId is required")
		return
	}

	if req.Message != nil {
		msg := *req.Message
		msg.Sender = middleware.GetUsername(r.Context())
		msg.Text = sanitizeText(msg.Text, maxMessageLength)
		if msg.Text == "" {
			h.Error(w, http.StatusBadRequest, "message text is required")
			return
		}

		if status, reason := h.gateSender(r, req.RoomID, msg.Sender); status != 0 {
			h.JSON(w, status, map[string]any{
				"error":  reason,
				"action": "apply_first",
			})
			return
		}

		stored, err := h.redis.AppendMessage(r.Context(), req.RoomID, msg)
		if err != nil {
			h.logger.Error().Err(err).Str("room", req.RoomID).Msg("failed to persist message")
			h.Error(w, http.StatusInternalServerError, "failed to save message")
			return
		}
		metrics.MessagesRelayed.Inc()

		// Live sessions in the room see the message even though it
		// arrived over HTTP.
		h.hub.BroadcastRoom(req.RoomID, ws.EventNewMessage, stored)
	}

	messages, err := h.redis.Thread(r.Context(), req.RoomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	h.JSON(w, http.StatusOK, ThreadResponse{RoomID: req.RoomID, Messages: messages})
}

// gateSender applies the owner-bypass eligibility check for an HTTP
// append. Returns (0, "") when the send may proceed; unparseable rooms
// and unknown jobs pass through, matching the relay.
func (h *Handler) gateSender(r *http.Request, roomID, sender string) (int, string) {
	id, err := room.Parse(roomID)
	if err != nil {
		h.logger.Warn().Str("room", roomID).Msg("unparseable room id, storing without eligibility check")
		return 0, ""
	}
	job, err := h.jobs.GetJob(r.Context(), id.JobID)
	if err != nil || job == nil {
		h.logger.Warn().Str("job", id.JobID).Msg("room references unknown job, storing without eligibility check")
		return 0, ""
	}
	if sender == job.PostedBy {
		return 0, ""
	}

	res := h.eligibility.Check(r.Context(), sender, id.JobID)
	if res.Eligible {
		return 0, ""
	}
	metrics.MessagesRejected.WithLabelValues("ineligible").Inc()
	return http.StatusForbidden, res.Reason
}

// ThreadsForJobRequest asks for every conversation attached to a job.
type ThreadsForJobRequest struct {
	JobID string `json:"jobId"`
}

// ThreadsForJob returns all message threads for a job, one per
// applicant. Used by job owners to see their conversations.
func (h *Handler) ThreadsForJob(w http.ResponseWriter, r *http.Request) {
	var req ThreadsForJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.JobID == "" {
		h.Error(w, http.StatusBadRequest, "jobId is required")
		return
	}

	threads, err := h.redis.ThreadsForJob(r.Context(), req.JobID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load threads")
		return
	}
	h.JSON(w, http.StatusOK, threads)
}
