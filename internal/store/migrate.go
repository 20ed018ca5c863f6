package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// pgSchema is the PostgreSQL schema, applied idempotently at startup.
const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	tokens INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS token_history (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL REFERENCES users(username),
	type TEXT NOT NULL CHECK (type IN ('add', 'deduct')),
	amount INTEGER NOT NULL CHECK (amount > 0),
	purpose TEXT NOT NULL,
	job_id TEXT,
	balance INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	posted_by TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Open',
	deadline TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	type TEXT NOT NULL,
	job_id TEXT,
	room_id TEXT,
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_token_history_username ON token_history(username);
CREATE INDEX IF NOT EXISTS idx_jobs_posted_by ON jobs(posted_by);
CREATE INDEX IF NOT EXISTS idx_notifications_username ON notifications(username, created_at DESC);
`

// RunMigrations applies the schema to the PostgreSQL database.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, pgSchema)
	return err
}
