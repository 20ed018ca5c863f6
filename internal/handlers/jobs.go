package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/jobs"
	"github.com/chetan5734v/freelancer/internal/store"
)

// CreateJobRequest represents the job posting request body.
type CreateJobRequest struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// CreateJob handles job postings. Posting costs tokens, so an empty
// balance is surfaced with the purchase call-to-action.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	title := sanitizeText(req.Title, 200)
	if title == "" {
		h.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	username := middleware.GetUsername(r.Context())
	job, err := h.jobs.Create(r.Context(), username, title, sanitizeText(req.Category, 100), sanitizeText(req.Description, 5000), req.Deadline)
	switch {
	case errors.Is(err, store.ErrInsufficientTokens):
		h.JSON(w, http.StatusPaymentRequired, map[string]string{
			"error":  "insufficient tokens to post a job",
			"action": "purchase_tokens",
		})
	case err != nil:
		h.logger.Error().Err(err).Str("username", username).Msg("failed to create job")
		h.Error(w, http.StatusInternalServerError, "failed to create job")
	default:
		h.JSON(w, http.StatusCreated, job)
	}
}

// ListJobs returns the job catalog.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.List(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	h.JSON(w, http.StatusOK, list)
}

// UpdateJobStatusRequest represents a status change request.
type UpdateJobStatusRequest struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// UpdateJobStatus changes a job's status. Owner only.
func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateJobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := h.jobs.UpdateStatus(r.Context(), req.JobID, req.Status, middleware.GetUsername(r.Context()))
	switch {
	case errors.Is(err, jobs.ErrInvalidStatus):
		h.Error(w, http.StatusBadRequest, "status must be Open, In Progress or Completed")
	case errors.Is(err, store.ErrNotFound):
		h.Error(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrNotOwner):
		h.Error(w, http.StatusForbidden, "only the job owner can update its status")
	case err != nil:
		h.Error(w, http.StatusInternalServerError, "failed to update job")
	default:
		h.JSON(w, http.StatusOK, job)
	}
}

// ApplyRequest represents a job application.
type ApplyRequest struct {
	JobID string `json:"jobId"`
}

// Apply handles the paid job application: the token debit that grants
// messaging eligibility, plus the room id the applicant should join.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.JobID == "" {
		h.Error(w, http.StatusBadRequest, "jobId is required")
		return
	}

	username := middleware.GetUsername(r.Context())
	res, err := h.jobs.Apply(r.Context(), username, req.JobID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.Error(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrOwnJob):
		h.Error(w, http.StatusBadRequest, "you cannot apply to your own job")
	case errors.Is(err, store.ErrInsufficientTokens):
		h.JSON(w, http.StatusPaymentRequired, map[string]string{
			"error":  "insufficient tokens to apply",
			"action": "purchase_tokens",
		})
	case err != nil:
		h.logger.Error().Err(err).Str("username", username).Str("job", req.JobID).Msg("failed to process application")
		h.Error(w, http.StatusInternalServerError, "failed to process application")
	default:
		h.JSON(w, http.StatusOK, res)
	}
}
