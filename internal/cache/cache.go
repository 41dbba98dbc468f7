// Package cache keeps the last project list fetched for each user in SQLite so
// it can be listed without reaching the backend.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/grovetools/uptask/pkg/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS project_summaries (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date TEXT NOT NULL DEFAULT '',
    client TEXT NOT NULL DEFAULT '',
    creator TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_summaries_user ON project_summaries(user_id, position);

CREATE TABLE IF NOT EXISTS sync_state (
    user_id TEXT PRIMARY KEY,
    synced_at TIMESTAMP NOT NULL
);
`

// DB wraps the SQLite cache connection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the cache at path.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return &DB{db}, nil
}

// SaveProjects replaces the cached list for userID.
func (db *DB) SaveProjects(ctx context.Context, userID string, projects []models.ProjectSummary) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_summaries WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cached projects: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO project_summaries (user_id, id, position, name, description, due_date, client, creator)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range projects {
		if _, err := stmt.ExecContext(ctx, userID, p.ID, i, p.Name, p.Description, p.DueDate, p.Client, p.Creator); err != nil {
			return fmt.Errorf("failed to cache project %s: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sync_state (user_id, synced_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET synced_at = excluded.synced_at`,
		userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record sync time: %w", err)
	}

	return tx.Commit()
}

// LoadProjects returns the cached list for userID in fetch order and when it
// was stored. A user with no cache gets an empty list and a zero time.
func (db *DB) LoadProjects(ctx context.Context, userID string) ([]models.ProjectSummary, time.Time, error) {
	var syncedAt time.Time
	err := db.QueryRowContext(ctx, `SELECT synced_at FROM sync_state WHERE user_id = ?`, userID).Scan(&syncedAt)
	if err == sql.ErrNoRows {
		return []models.ProjectSummary{}, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read sync time: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, due_date, client, creator
		FROM project_summaries WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query cached projects: %w", err)
	}
	defer rows.Close()

	projects := []models.ProjectSummary{}
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DueDate, &p.Client, &p.Creator); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan cached project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, syncedAt, rows.Err()
}

// Forget drops everything cached for userID.
func (db *DB) Forget(ctx context.Context, userID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM project_summaries WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cached projects: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM sync_state WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear sync time: %w", err)
	}
	return nil
}
