package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/store"
)

type fakeLedger struct {
	history map[string][]models.TokenEntry
	err     error
}

func (f *fakeLedger) TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	entries, ok := f.history[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return entries, nil
}

func newTestEngine(t *testing.T, ledger Ledger, now time.Time) *Engine {
	t.Helper()
	e := NewEngine(ledger, zerolog.Nop())
	e.Now = func() time.Time { return now }
	return e
}

func applicationEntry(jobID string, ts time.Time) models.TokenEntry {
	return models.TokenEntry{
		Type:      models.EntryDeduct,
		Amount:    1,
		Purpose:   "Applied for job: Build a website (ID: " + jobID + ")",
		JobID:     jobID,
		Timestamp: ts,
		Balance:   4,
	}
}

func TestEligibleAfterApplying(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{history: map[string][]models.TokenEntry{
		"alice": {applicationEntry("J1", now.Add(-48*time.Hour))},
	}}
	e := newTestEngine(t, ledger, now)

	res := e.Check(context.Background(), "alice", "J1")
	if !res.Eligible {
		t.Fatalf("expected eligible, got reason %q", res.Reason)
	}
}

func TestLegacyPurposeTextMatch(t *testing.T) {
	// Entries written before the structured job reference only carry
	// the job id inside the purpose text.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := applicationEntry("J1", now.Add(-48*time.Hour))
	entry.JobID = ""
	ledger := &fakeLedger{history: map[string][]models.TokenEntry{"alice": {entry}}}
	e := newTestEngine(t, ledger, now)

	if res := e.Check(context.Background(), "alice", "J1"); !res.Eligible {
		t.Fatalf("expected eligible via purpose text, got reason %q", res.Reason)
	}
}

func TestGraceWindowBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		age      time.Duration
		jobID    string
		eligible bool
	}{
		{"recent application, other job", 9*time.Minute + 59*time.Second, "J2", true},
		{"stale application, other job", 10*time.Minute + 1*time.Second, "J2", false},
		{"stale application, same job", 10*time.Minute + 1*time.Second, "J1", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ledger := &fakeLedger{history: map[string][]models.TokenEntry{
				"alice": {applicationEntry("J1", now.Add(-c.age))},
			}}
			e := newTestEngine(t, ledger, now)

			res := e.Check(context.Background(), "alice", c.jobID)
			if res.Eligible != c.eligible {
				t.Errorf("eligible = %v, want %v (reason %q)", res.Eligible, c.eligible, res.Reason)
			}
		})
	}
}

func TestNonApplicationEntriesIgnored(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{history: map[string][]models.TokenEntry{
		"alice": {
			{Type: models.EntryAdd, Amount: 5, Purpose: "Welcome bonus - New user signup", Timestamp: now, Balance: 5},
			{Type: models.EntryDeduct, Amount: 1, Purpose: "Posted job: Logo design (ID: J1)", Timestamp: now, Balance: 4},
		},
	}}
	e := newTestEngine(t, ledger, now)

	if res := e.Check(context.Background(), "alice", "J1"); res.Eligible {
		t.Fatal("expected ineligible: no application entry exists")
	}
}

func TestUnknownUser(t *testing.T) {
	e := newTestEngine(t, &fakeLedger{history: map[string][]models.TokenEntry{}}, time.Now())

	res := e.Check(context.Background(), "ghost", "J1")
	if res.Eligible {
		t.Fatal("expected ineligible for unknown user")
	}
	if res.Reason != ReasonUserNotFound {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonUserNotFound)
	}
}

func TestLedgerFailureDegrades(t *testing.T) {
	e := newTestEngine(t, &fakeLedger{err: errors.New("connection refused")}, time.Now())

	res := e.Check(context.Background(), "alice", "J1")
	if res.Eligible {
		t.Fatal("expected ineligible on ledger failure")
	}
	if res.Reason != ReasonCheckFailed {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonCheckFailed)
	}
}

func TestMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{history: map[string][]models.TokenEntry{
		"alice": {applicationEntry("J1", now.Add(-time.Hour))},
	}}
	e := newTestEngine(t, ledger, now)

	for i := 0; i < 3; i++ {
		if res := e.Check(context.Background(), "alice", "J1"); !res.Eligible {
			t.Fatalf("call %d: expected eligible, got reason %q", i, res.Reason)
		}
	}
}
