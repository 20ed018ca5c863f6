package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chetan5734v/freelancer/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user account with the signup token bonus and
// its matching ledger entry.
func (s *PostgresStore) CreateUser(ctx context.Context, firstName, lastName, username, passwordHash string) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user := &models.User{}
	err = tx.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, username, password_hash, tokens)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, first_name, last_name, username, password_hash, tokens, created_at
	`, firstName, lastName, username, passwordHash, SignupBonus).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.PasswordHash,
		&user.Tokens,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, balance)
		VALUES ($1, $2, $3, $4, $5)
	`, username, models.EntryAdd, SignupBonus, signupBonusPurpose, SignupBonus)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil)
// when no such user exists.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, username, password_hash, tokens, created_at
		FROM users WHERE username = $1
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// TokenHistory returns the user's ledger entries, oldest first.
func (s *PostgresStore) TokenHistory(ctx context.Context, username string) ([]models.TokenEntry, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT type, amount, purpose, COALESCE(job_id, ''), created_at, balance
		FROM token_history
		WHERE username = $1
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
// and appends the matching ledger entry. The balance guard sits inside
// the UPDATE so a race can never drive the balance negative.
func (s *PostgresStore) DebitTokens(ctx context.Context, username string, amount int, purpose, jobID string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `
		UPDATE users SET tokens = tokens - $2
		WHERE username = $1 AND tokens >= $2
		RETURNING tokens
	`, username, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
				return 0, err
			}
			if !exists {
				return 0, ErrNotFound
			}
			return 0, ErrInsufficientTokens
		}
		return 0, err
	}

	var jobIDPtr *string
	if jobID != "" {
		jobIDPtr = &jobID
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, job_id, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, username, models.EntryDeduct, amount, purpose, jobIDPtr, balance)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// CreditTokens atomically adds amount tokens to the user's balance and
// appends the matching ledger entry.
func (s *PostgresStore) CreditTokens(ctx context.Context, username string, amount int, purpose string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `
		UPDATE users SET tokens = tokens + $2
		WHERE username = $1
		RETURNING tokens
	`, username, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO token_history (username, type, amount, purpose, balance)
		VALUES ($1, $2, $3, $4, $5)
	`, username, models.EntryAdd, amount, purpose, balance)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// CreateJob creates a new job posting.
func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobOpen
	}

	created := &models.Job{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (id, title, category, description, posted_by, status, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, category, description, posted_by, status, deadline, created_at
	`, job.ID, job.Title, job.Category, job.Description, job.PostedBy, job.Status, job.Deadline).Scan(
		&created.ID,
		&created.Title,
		&created.Category,
		&created.Description,
		&created.PostedBy,
		&created.Status,
		&created.Deadline,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetJob retrieves a job by ID. Returns (nil, nil) when no such job exists.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job := &models.Job{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, category, description, posted_by, status, deadline, created_at
		FROM jobs WHERE id = $1
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// ListJobs retrieves all jobs, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx, `
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
func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id, status string) (*models.Job, error) {
	job := &models.Job{}
	err := s.pool.QueryRow(ctx, `
		UPDATE jobs SET status = $2 WHERE id = $1
		RETURNING id, title, category, description, posted_by, status, deadline, created_at
	`, id, status).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// CreateNotification stores a new notification record.
func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	created := &models.Notification{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, username, title, message, type, job_id, room_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING id, username, title, message, type, COALESCE(job_id, ''), COALESCE(room_id, ''), read, created_at
	`, n.ID, n.Username, n.Title, n.Message, n.Type, n.JobID, n.RoomID).Scan(
		&created.ID,
		&created.Username,
		&created.Title,
		&created.Message,
		&created.Type,
		&created.JobID,
		&created.RoomID,
		&created.Read,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListNotifications retrieves a user's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, username string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, username, title, message, type, COALESCE(job_id, ''), COALESCE(room_id, ''), read, created_at
		FROM notifications
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2
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

// MarkNotificationRead flips a notification's read flag. The flag never
// flips back.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1
	`, id)
	return err
}

// ClearNotifications deletes all of a user's notifications.
func (s *PostgresStore) ClearNotifications(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM notifications WHERE username = $1
	`, username)
	return err
}
