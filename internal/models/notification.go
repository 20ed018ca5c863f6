package models

import "time"

// Notification kinds.
const (
	NotifyJob            = "job"
	NotifyMessage        = "message"
	NotifyJobApplication = "job_application"
)

// Notification is a durable per-user event record. The read flag only
// ever flips false to true.
type Notification struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"` // recipient handle
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // job, message or job_application
	JobID     string    `json:"jobId,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
