package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chetan5734v/freelancer/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/freelancer.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/freelancer.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		tokens INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS token_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('add', 'deduct')),
		amount INTEGER NOT NULL CHECK (amount > 0),
		purpose TEXT NOT NULL,
		job_id TEXT,
		balance INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		posted_by TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Open',
		deadline DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		job_id TEXT,
		room_id TEXT,
		read INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_token_history_username ON token_history(username);
	CREATE INDEX IF NOT EXISTS idx_jobs_posted_by ON jobs(posted_by);
	CREATE INDEX IF NOT EXISTS idx_notifications_username ON notifications(username, created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user account with the signup token bonus and
// its matching ledger entry.
func (s *SQLiteStore) CreateUser(ctx context.Context, firstName, lastName, username, passwordHash string) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := uuid.New().String()
	now := nowUTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, username, password_hash, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, firstName, lastName, username, passwordHash, SignupBonus, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, username, models.EntryAdd, SignupBonus, signupBonusPurpose, SignupBonus, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.User{
		ID:           id,
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: passwordHash,
		Tokens:       SignupBonus,
		CreatedAt:    now,
	}, nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil)
// when no such user exists.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, username, password_hash, tokens, created_at
		FROM users WHERE username = ?
	`, username).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// TokenHistory returns the user's ledger entries, oldest first.
func (s *SQLiteStore) TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, amount, purpose, COALESCE(job_id, ''), created_at, balance
		FROM token_history
		WHERE username = ?
		ORDER BY id ASC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.TokenEntry
	for rows.Next() {
		var e models.TokenEntry
		if err := rows.Scan(&e.Type, &e.Amount, &e.Purpose, &e.JobID, &e.Timestamp, &e.Balance); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// DebitTokens atomically removes amount tokens from the user's balance
// and appends the matching ledger entry.
func (s *SQLiteStore) DebitTokens(ctx context.Context, username string, amount int, purpose, jobID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET tokens = tokens - ?
		WHERE username = ? AND tokens >= ?
	`, amount, username, amount)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientTokens
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT tokens FROM users WHERE username = ?`, username).Scan(&balance); err != nil {
		return 0, err
	}

	var jobIDPtr *string
	if jobID != "" {
		jobIDPtr = &jobID
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, job_id, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, username, models.EntryDeduct, amount, purpose, jobIDPtr, balance, nowUTC())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// CreditTokens atomically adds amount tokens to the user's balance and
// appends the matching ledger entry.
func (s *SQLiteStore) CreditTokens(ctx context.Context, username string, amount int, purpose string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET tokens = tokens + ? WHERE username = ?
	`, amount, username)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT tokens FROM users WHERE username = ?`, username).Scan(&balance); err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, username, models.EntryAdd, amount, purpose, balance, nowUTC())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// CreateJob creates a new job posting.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobOpen
	}
	job.CreatedAt = nowUTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, category, description, posted_by, status, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Title, job.Category, job.Description, job.PostedBy, job.Status, job.Deadline, job.CreatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob retrieves a job by ID. Returns (nil, nil) when no such job exists.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job := &models.Job{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, category, description, posted_by, status, deadline, created_at
		FROM jobs WHERE id = ?
	`, id).Scan(
		&job.ID,
		&job.Title,
		&job.Category,
		&job.Description,
		&job.PostedBy,
		&job.Status,
		&job.Deadline,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// ListJobs retrieves all jobs, newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, category, description, posted_by, status, deadline, created_at
		FROM jobs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var job models.Job
		err := rows.Scan(
			&job.ID,
			&job.Title,
			&job.Category,
			&job.Description,
			&job.PostedBy,
			&job.Status,
			&job.Deadline,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus sets a job's status. Returns (nil, nil) when no such
// job exists.
func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, id, status string) (*models.Job, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ? WHERE id = ?
	`, status, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetJob(ctx, id)
}

// CreateNotification stores a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.Read = false
	n.CreatedAt = nowUTC()

	var jobID, roomID *string
	if n.JobID != "" {
		jobID = &n.JobID
	}
	if n.RoomID != "" {
		roomID = &n.RoomID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, username, title, message, type, job_id, room_id, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, n.ID, n.Username, n.Title, n.Message, n.Type, jobID, roomID, n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications retrieves a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, username string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, title, message, type, COALESCE(job_id, ''), COALESCE(room_id, ''), read, created_at
		FROM notifications
		WHERE username = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.Username,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.JobID,
			&n.RoomID,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips a notification's read flag.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE id = ?
	`, id)
	return err
}

// ClearNotifications deletes all of a user's notifications.
func (s *SQLiteStore) ClearNotifications(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE username = ?
	`, username)
	return err
}
