package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema mirrors the complex's setup script. The unique_view constraint backs idempotent read receipts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS landlords (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255),
	email VARCHAR(255),
	phone VARCHAR(255),
	password_hash VARCHAR(255)
)`,
	`CREATE TABLE IF NOT EXISTS complexes (
	id BIGSERIAL PRIMARY KEY,
	address VARCHAR(255),
	landlord_id BIGINT REFERENCES landlords (id)
)`,
	`CREATE TABLE IF NOT EXISTS students (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255),
	room INT,
	complex_id BIGINT,
	password_hash VARCHAR(255)
)`,
	`CREATE TABLE IF NOT EXISTS announcements (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	event_at TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL,
	student_id BIGINT NOT NULL REFERENCES students (id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_event_at ON announcements (event_at, created_at)`,
	`CREATE TABLE IF NOT EXISTS complaints (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students (id),
	description VARCHAR(255) NOT NULL,
	reported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS announcement_views (
	id BIGSERIAL PRIMARY KEY,
	announcement_id BIGINT NOT NULL REFERENCES announcements (id) ON DELETE CASCADE,
	student_id BIGINT NOT NULL REFERENCES students (id),
	viewed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT unique_view UNIQUE (announcement_id, student_id)
)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Seed inserts demo residents and announcements into an empty database.
func Seed(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students"); err != nil {
		return false, fmt.Errorf("count students: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `INSERT INTO students (name, email, room, complex_id) VALUES
('Gio', 'gio@s.nl', 101, 1), ('Sasha', 'sasha@s.nl', 102, 1), ('Luuk', 'luuk@s.nl', 103, 1)`); err != nil {
		return false, fmt.Errorf("seed students: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO announcements (title, event_at, description, student_id)
SELECT 'Oud & Nieuw', TIMESTAMPTZ '2024-01-01 20:00:00+01', 'Oud', id FROM students WHERE name = 'Sasha'
UNION ALL
SELECT 'Huisfeest Gio', NOW() + INTERVAL '5 days', 'Bier', id FROM students WHERE name = 'Gio'`); err != nil {
		return false, fmt.Errorf("seed announcements: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}
