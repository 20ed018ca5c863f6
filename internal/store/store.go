package store

import (
	"context"
	"errors"
	"time"

	"github.com/chetan5734v/freelancer/internal/models"
)

// ErrNotFound is returned by ledger operations when the user does not
// exist. Entity getters return (nil, nil) for missing rows instead.
var ErrNotFound = errors.New("not found")

// ErrInsufficientTokens is returned by DebitTokens when the user's
// balance would go negative. No partial debit is applied.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DataStore is the interface for durable marketplace state: users, the
// token ledger, jobs and notifications. Both PostgresStore and
// SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, firstName, lastName, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Token ledger operations. Debit and credit update the balance and
	// append a history entry in a single transaction.
	TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error)
	DebitTokens(ctx context.Context, username string, amount int, purpose, jobID string) (int, error)
	CreditTokens(ctx context.Context, username string, amount int, purpose string) (int, error)

	// Job operations
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	UpdateJobStatus(ctx context.Context, id, status string) (*models.Job, error)

	// Notification operations
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListNotifications(ctx context.Context, username string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context, username string) error
}

// SignupBonus is the number of free tokens a new account starts with.
const SignupBonus = 5

// signupBonusPurpose is the ledger purpose recorded for the welcome grant.
const signupBonusPurpose = "Welcome bonus - New user signup"

// nowUTC returns the current time truncated to millisecond precision,
// matching what the databases round-trip.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
