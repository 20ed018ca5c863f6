package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/eligibility"
)

// EligibilityRequest asks whether the caller may message about a job.
type EligibilityRequest struct {
	JobID string `json:"jobId"`
}

// EligibilityResponse is the probe result. Action tells the client what
// would change the answer.
type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	Action   string `json:"action,omitempty"`
}

// CheckEligibility is the explicit eligibility probe clients call
// before opening a chat, so the UI can route to the apply flow instead
// of a dead message box.
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req EligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.JobID == "" {
		h.Error(w, http.StatusBadRequest, "jobId is required")
		return
	}

	username := middleware.GetUsername(r.Context())

	// The job owner never needs to apply to their own job.
	if job, err := h.jobs.GetJob(r.Context(), req.JobID); err == nil && job != nil && job.PostedBy == username {
		h.JSON(w, http.StatusOK, EligibilityResponse{Eligible: true})
		return
	}

	res := h.eligibility.Check(r.Context(), username, req.JobID)
	if res.Eligible {
		h.JSON(w, http.StatusOK, EligibilityResponse{Eligible: true})
		return
	}

	switch res.Reason {
	case eligibility.ReasonUserNotFound:
		h.JSON(w, http.StatusNotFound, EligibilityResponse{Eligible: false, Reason: res.Reason})
	case eligibility.ReasonCheckFailed:
		h.JSON(w, http.StatusServiceUnavailable, EligibilityResponse{Eligible: false, Reason: res.Reason})
	default:
		h.JSON(w, http.StatusForbidden, EligibilityResponse{
			Eligible: false,
			Reason:   res.Reason,
			Action:   "apply_first",
		})
	}
}
