package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/notify"
	"github.com/chetan5734v/freelancer/internal/store"
	"github.com/chetan5734v/freelancer/internal/token"
)

// memStore is an in-memory DataStore with just enough behavior for the
// catalog and apply flows: real balance arithmetic, ledger history and
// job/notification records.
type memStore struct {
	balances      map[string]int
	history       map[string][]models.TokenEntry
	jobs          map[string]*models.Job
	notifications []models.Notification
	nextID        int
	failCreateJob bool
}

func newMemStore() *memStore {
	return &memStore{
		balances: map[string]int{},
		history:  map[string][]models.TokenEntry{},
		jobs:     map[string]*models.Job{},
	}
}

func (m *memStore) Close()                         {}
func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) CreateUser(ctx context.Context, firstName, lastName, username, passwordHash string) (*models.User, error) {
	m.balances[username] = store.SignupBonus
	return &models.User{Username: username, Tokens: store.SignupBonus}, nil
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	bal, ok := m.balances[username]
	if !ok {
		return nil, nil
	}
	return &models.User{Username: username, Tokens: bal}, nil
}

func (m *memStore) TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error) {
	if _, ok := m.balances[username]; !ok {
		return nil, store.ErrNotFound
	}
	return m.history[username], nil
}

func (m *memStore) DebitTokens(ctx context.Context, username string, amount int, purpose, jobID string) (int, error) {
	bal, ok := m.balances[username]
	if !ok {
		return 0, store.ErrNotFound
	}
	if bal < amount {
		return 0, store.ErrInsufficientTokens
	}
	bal -= amount
	m.balances[username] = bal
	m.history[username] = append(m.history[username], models.TokenEntry{
		Type: models.EntryDeduct, Amount: amount, Purpose: purpose, JobID: jobID, Balance: bal,
	})
	return bal, nil
}

func (m *memStore) CreditTokens(ctx context.Context, username string, amount int, purpose string) (int, error) {
	bal, ok := m.balances[username]
	if !ok {
		return 0, store.ErrNotFound
	}
	bal += amount
	m.balances[username] = bal
	m.history[username] = append(m.history[username], models.TokenEntry{
		Type: models.EntryAdd, Amount: amount, Purpose: purpose, Balance: bal,
	})
	return bal, nil
}

func (m *memStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if m.failCreateJob {
		return nil, errors.New("catalog down")
	}
	m.nextID++
	j := *job
	j.ID = fmt.Sprintf("J%d", m.nextID)
	m.jobs[j.ID] = &j
	return &j, nil
}

func (m *memStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *memStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	out := make([]models.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (m *memStore) UpdateJobStatus(ctx context.Context, id, status string) (*models.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	j.Status = status
	cp := *j
	return &cp, nil
}

func (m *memStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	cp := *n
	cp.ID = fmt.Sprintf("N%d", len(m.notifications)+1)
	m.notifications = append(m.notifications, cp)
	return &cp, nil
}

func (m *memStore) ListNotifications(ctx context.Context, username string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.Username == username {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, id string) error { return nil }
func (m *memStore) ClearNotifications(ctx context.Context, username string) error {
	return nil
}

// fakePusher records hub-wide broadcasts.
type fakePusher struct {
	events   []string
	payloads []any
}

func (f *fakePusher) BroadcastAll(event string, data any) {
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, data)
}

func newService(ms *memStore) *Service {
	svc, _ := newServiceWithPusher(ms)
	return svc
}

func newServiceWithPusher(ms *memStore) (*Service, *fakePusher) {
	logger := zerolog.Nop()
	tokens := token.NewService(ms)
	notifier := notify.New(ms, nil, logger)
	pusher := &fakePusher{}
	return NewService(ms, tokens, notifier, pusher, logger), pusher
}

func seedJob(t *testing.T, ms *memStore, svc *Service, owner, title string) *models.Job {
	t.Helper()
	ms.balances[owner] = 10
	job, err := svc.Create(context.Background(), owner, title, "web", "desc", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestCreateDebitsPostCost(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)

	job := seedJob(t, ms, svc, "bob", "Build a website")
	if job.Status != models.JobOpen {
		t.Fatalf("status = %q, want %q", job.Status, models.JobOpen)
	}
	if got := ms.balances["bob"]; got != 10-PostCost {
		t.Fatalf("balance = %d, want %d", got, 10-PostCost)
	}
	entries := ms.history["bob"]
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Purpose, "Posted job:") {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestCreateAnnouncesNewJob(t *testing.T) {
	ms := newMemStore()
	svc, pusher := newServiceWithPusher(ms)
	ms.balances["bob"] = 10

	job, err := svc.Create(context.Background(), "bob", "Build a website", "web", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pusher.events) != 1 || pusher.events[0] != "newJob" {
		t.Fatalf("events = %v, want [newJob]", pusher.events)
	}
	pushed, ok := pusher.payloads[0].(*models.Job)
	if !ok || pushed.ID != job.ID {
		t.Fatalf("payload = %+v, want created job", pusher.payloads[0])
	}
}

func TestCreateNoAnnouncementOnFailure(t *testing.T) {
	ms := newMemStore()
	svc, pusher := newServiceWithPusher(ms)
	ms.balances["bob"] = 10
	ms.failCreateJob = true

	if _, err := svc.Create(context.Background(), "bob", "Doomed", "", "", nil); err == nil {
		t.Fatal("Create succeeded despite catalog failure")
	}
	if len(pusher.events) != 0 {
		t.Fatalf("events = %v, want none", pusher.events)
	}
}

func TestCreateRefundsWhenCatalogFails(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	ms.balances["bob"] = 10
	ms.failCreateJob = true

	if _, err := svc.Create(context.Background(), "bob", "Doomed", "", "", nil); err == nil {
		t.Fatal("Create succeeded despite catalog failure")
	}
	if got := ms.balances["bob"]; got != 10 {
		t.Fatalf("balance = %d after refund, want 10", got)
	}
}

func TestCreateInsufficientTokens(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	ms.balances["broke"] = 0

	_, err := svc.Create(context.Background(), "broke", "Nope", "", "", nil)
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
	if len(ms.jobs) != 0 {
		t.Fatal("job was created without payment")
	}
}

func TestApply(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	job := seedJob(t, ms, svc, "bob", "Build a website")
	ms.balances["alice"] = 3

	res, err := svc.Apply(context.Background(), "alice", job.ID)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	wantRoom := "job_" + job.ID + "_freelancer_alice"
	if res.RoomID != wantRoom {
		t.Fatalf("RoomID = %q, want %q", res.RoomID, wantRoom)
	}
	if res.TokenDeducted != ApplyCost || res.NewBalance != 3-ApplyCost {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries := ms.history["alice"]
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(entries))
	}
	e := entries[0]
	if e.JobID != job.ID {
		t.Fatalf("ledger JobID = %q, want %q", e.JobID, job.ID)
	}
	wantPurpose := fmt.Sprintf("Applied for job: %s (ID: %s)", job.Title, job.ID)
	if e.Purpose != wantPurpose {
		t.Fatalf("purpose = %q, want %q", e.Purpose, wantPurpose)
	}

	if len(ms.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(ms.notifications))
	}
	n := ms.notifications[0]
	if n.Username != "bob" || n.Type != models.NotifyJobApplication || n.JobID != job.ID || n.RoomID != wantRoom {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestApplyOwnJob(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	job := seedJob(t, ms, svc, "bob", "Build a website")
	before := ms.balances["bob"]

	_, err := svc.Apply(context.Background(), "bob", job.ID)
	if !errors.Is(err, ErrOwnJob) {
		t.Fatalf("err = %v, want ErrOwnJob", err)
	}
	if ms.balances["bob"] != before {
		t.Fatal("owner was charged for applying to their own job")
	}
}

func TestApplyUnknownJob(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	ms.balances["alice"] = 3

	_, err := svc.Apply(context.Background(), "alice", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyInsufficientTokens(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	job := seedJob(t, ms, svc, "bob", "Build a website")
	ms.balances["alice"] = 0

	_, err := svc.Apply(context.Background(), "alice", job.ID)
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("err = %v, want ErrInsufficientTokens", err)
	}
	if len(ms.notifications) != 0 {
		t.Fatal("owner was notified of a failed application")
	}
}

func TestUpdateStatus(t *testing.T) {
	ms := newMemStore()
	svc := newService(ms)
	job := seedJob(t, ms, svc, "bob", "Build a website")

	updated, err := svc.UpdateStatus(context.Background(), job.ID, models.JobInProgress, "bob")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.JobInProgress {
		t.Fatalf("status = %q, want %q", updated.Status, models.JobInProgress)
	}

	if _, err := svc.UpdateStatus(context.Background(), job.ID, models.JobCompleted, "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), job.ID, "Paused", "bob"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}
