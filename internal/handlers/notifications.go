package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/models"
)

// notificationListLimit caps how many notifications a list returns.
const notificationListLimit = 50

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())
	list, err := h.pg.ListNotifications(r.Context(), username, notificationListLimit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	h.JSON(w, http.StatusOK, list)
}

// CreateNotificationRequest represents an explicit notification create.
type CreateNotificationRequest struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	JobID    string `json:"jobId,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
}

// CreateNotification records a notification and pushes it to connected
// sessions. Most notifications are created by the apply and message
// flows; this endpoint covers the rest.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Title == "" {
		h.Error(w, http.StatusBadRequest, "username and title are required")
		return
	}
	kind := req.Type
	if kind == "" {
		kind = models.NotifyJob
	}

	created, err := h.notifier.Notify(r.Context(), req.Username, sanitizeText(req.Title, 200), sanitizeText(req.Message, 1000), kind, req.JobID, req.RoomID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create notification")
		return
	}
	h.JSON(w, http.StatusCreated, created)
}

// MarkReadRequest identifies the notification to mark read.
type MarkReadRequest struct {
	ID string `json:"id"`
}

// MarkNotificationRead marks one notification as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		h.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.pg.MarkNotificationRead(r.Context(), req.ID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ClearNotifications removes all of the caller's notifications.
func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())
	if err := h.pg.ClearNotifications(r.Context(), username); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to clear notifications")
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
