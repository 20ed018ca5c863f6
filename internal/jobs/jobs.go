// Package jobs implements the job catalog and the paid application
// flow that grants messaging eligibility.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/notify"
	"github.com/chetan5734v/freelancer/internal/room"
	"github.com/chetan5734v/freelancer/internal/store"
	"github.com/chetan5734v/freelancer/internal/token"
)

// Token costs. One token per job post and one per application.
const (
	PostCost  = 1
	ApplyCost = 1
)

var (
	// ErrNotOwner is returned when a user updates a job they didn't post.
	ErrNotOwner = errors.New("not the job owner")
	// ErrOwnJob is returned when a user applies to their own job. The
	// owner never needs to apply; they can always message about it.
	ErrOwnJob = errors.New("cannot apply to own job")
	// ErrInvalidStatus is returned for unknown job statuses.
	ErrInvalidStatus = errors.New("invalid job status")
)

// newJobEvent is pushed to every connected session when a job is
// posted, so open catalogs refresh live.
const newJobEvent = "newJob"

// Service implements catalog operations and the apply flow.
type Service struct {
	store    store.DataStore
	tokens   *token.Service
	notifier *notify.Notifier
	pusher   notify.Pusher
	logger   zerolog.Logger
}

// NewService creates a Service. pusher may be nil, in which case new
// job posts are not announced live.
func NewService(ds store.DataStore, tokens *token.Service, notifier *notify.Notifier, pusher notify.Pusher, logger zerolog.Logger) *Service {
	return &Service{store: ds, tokens: tokens, notifier: notifier, pusher: pusher, logger: logger}
}

// Create posts a new job, debiting the posting cost first. If the
// catalog write then fails the debit is refunded so the user isn't
// charged for a job that never existed.
func (s *Service) Create(ctx context.Context, postedBy, title, category, description string, deadline *time.Time) (*models.Job, error) {
	purpose := fmt.Sprintf("Posted job: %s", title)
	if _, err := s.tokens.Debit(ctx, postedBy, PostCost, purpose, ""); err != nil {
		return nil, err
	}

	job, err := s.store.CreateJob(ctx, &models.Job{
		Title:       title,
		Category:    category,
		Description: description,
		PostedBy:    postedBy,
		Status:      models.JobOpen,
		Deadline:    deadline,
	})
	if err != nil {
		if _, refundErr := s.tokens.Credit(ctx, postedBy, PostCost, "Refund: job post failed"); refundErr != nil {
			s.logger.Error().Err(refundErr).Str("username", postedBy).Msg("failed to refund job post debit")
		}
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.BroadcastAll(newJobEvent, job)
	}
	return job, nil
}

// Get returns a job by id, (nil, nil) if missing.
func (s *Service) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

// GetJob is an alias satisfying the relay's JobCatalog interface.
func (s *Service) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.store.GetJob(ctx, id)
}

// List returns all jobs, newest first.
func (s *Service) List(ctx context.Context) ([]models.Job, error) {
	return s.store.ListJobs(ctx)
}

// UpdateStatus changes a job's status. Only the job owner may.
func (s *Service) UpdateStatus(ctx context.Context, id, status, username string) (*models.Job, error) {
	if !models.ValidJobStatus(status) {
		return nil, ErrInvalidStatus
	}
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, store.ErrNotFound
	}
	if job.PostedBy != username {
		return nil, ErrNotOwner
	}
	return s.store.UpdateJobStatus(ctx, id, status)
}

// ApplyResult is what a successful application returns: the room the
// freelancer should join to start messaging, and the balance after the
// debit.
type ApplyResult struct {
	RoomID        string `json:"roomId"`
	TokenDeducted int    `json:"tokenDeducted"`
	NewBalance    int    `json:"newBalance"`
}

// Apply processes a paid job application. The debit and its ledger
// entry are written in one transaction; the ledger entry carries the
// job id, which is what later grants messaging eligibility. A debit
// without that record would leave the freelancer locked out despite
// having paid.
func (s *Service) Apply(ctx context.Context, username, jobID string) (*ApplyResult, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, store.ErrNotFound
	}
	if job.PostedBy == username {
		return nil, ErrOwnJob
	}

	purpose := fmt.Sprintf("Applied for job: %s (ID: %s)", job.Title, jobID)
	balance, err := s.tokens.Debit(ctx, username, ApplyCost, purpose, jobID)
	if err != nil {
		return nil, err
	}
	metrics.JobApplications.Inc()

	rid, err := room.New(jobID, username)
	if err != nil {
		// Job ids are UUIDs, so this only fires for hand-crafted ids.
		return nil, err
	}

	body := fmt.Sprintf("%s applied for your job %q", username, job.Title)
	if _, err := s.notifier.Notify(ctx, job.PostedBy, "New Job Application", body, models.NotifyJobApplication, jobID, rid.String()); err != nil {
		s.logger.Warn().Err(err).Str("recipient", job.PostedBy).Msg("failed to notify job owner of application")
	}

	s.logger.Info().
		Str("username", username).
		Str("job", jobID).
		Int("balance", balance).
		Msg("job application processed")

	return &ApplyResult{
		RoomID:        rid.String(),
		TokenDeducted: ApplyCost,
		NewBalance:    balance,
	}, nil
}
