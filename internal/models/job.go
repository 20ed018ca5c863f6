package models

import "time"

// Job statuses.
const (
	JobOpen       = "Open"
	JobInProgress = "In Progress"
	JobCompleted  = "Completed"
)

// Job is a posted task freelancers can apply to.
type Job struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	PostedBy    string     `json:"postedBy"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ValidJobStatus reports whether s is one of the allowed job statuses.
func ValidJobStatus(s string) bool {
	switch s {
	case JobOpen, JobInProgress, JobCompleted:
		return true
	}
	return false
}
