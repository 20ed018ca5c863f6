// Package eligibility decides whether a freelancer may message a job's
// owner. Applying to a job (which costs a token) writes a ledger entry;
// this package reads that ledger back. The job owner is never checked,
// that asymmetry lives in the relay.
package eligibility

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/store"
)

// applicationMarker is the purpose-text fragment every job-application
// ledger entry carries. Older entries without a structured job id are
// still recognized through it.
const applicationMarker = "Applied for job"

// GraceWindow is how long after any job application a freelancer may
// message about any job. It papers over the propagation gap between
// "apply" and "first chat message".
const GraceWindow = 10 * time.Minute

// Check outcomes surfaced in Result.Reason.
const (
	ReasonUserNotFound = "User not found"
	ReasonNotApplied   = "You must apply for this job first before messaging the job owner."
	ReasonCheckFailed  = "Unable to verify messaging eligibility."
)

// Result is the outcome of an eligibility check.
type Result struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// Ledger provides read access to a user's token transaction history.
// Implementations return store.ErrNotFound for unknown users.
type Ledger interface {
	TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error)
}

// Engine answers "may this user message about this job". It is a pure
// read over the ledger; a granted eligibility is never revoked.
type Engine struct {
	ledger Ledger
	logger zerolog.Logger

	// Now is the clock used for the grace window. Overridable in tests.
	Now func() time.Time
}

// NewEngine creates an Engine reading the given ledger.
func NewEngine(ledger Ledger, logger zerolog.Logger) *Engine {
	return &Engine{ledger: ledger, logger: logger, Now: time.Now}
}

// Check reports whether username may exchange messages about jobID.
// A user is eligible if they hold an application entry for this exact
// job, or any application entry within the grace window. Lookup
// failures degrade to not-eligible; this path must never take the relay
// down with it.
func (e *Engine) Check(ctx context.Context, username, jobID string) Result {
	history, err := e.ledger.TokenHistory(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.EligibilityChecks.WithLabelValues("ineligible").Inc()
			return Result{Eligible: false, Reason: ReasonUserNotFound}
		}
		e.logger.Warn().Err(err).Str("username", username).Msg("eligibility ledger lookup failed")
		metrics.EligibilityChecks.WithLabelValues("ineligible").Inc()
		return Result{Eligible: false, Reason: ReasonCheckFailed}
	}

	now := e.Now()
	for _, entry := range history {
		if !isApplication(entry) {
			continue
		}
		if entry.JobID == jobID || strings.Contains(entry.Purpose, jobID) {
			metrics.EligibilityChecks.WithLabelValues("eligible").Inc()
			return Result{Eligible: true}
		}
		if now.Sub(entry.Timestamp) <= GraceWindow {
			metrics.EligibilityChecks.WithLabelValues("eligible").Inc()
			return Result{Eligible: true}
		}
	}

	metrics.EligibilityChecks.WithLabelValues("ineligible").Inc()
	return Result{Eligible: false, Reason: ReasonNotApplied}
}

// isApplication reports whether a ledger entry records a job
// application: a deduction carrying either the structured job reference
// or the legacy purpose-text marker.
func isApplication(entry models.TokenEntry) bool {
	if entry.Type != models.EntryDeduct {
		return false
	}
	return entry.JobID != "" || strings.Contains(entry.Purpose, applicationMarker)
}
