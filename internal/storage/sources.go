package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Source kinds.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a deck origin, either a local path or a Git URL, owned by one user.
type Source struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Path        string     `json:"path" db:"path"`
	Kind        string     `json:"kind" db:"kind"`
	LastScanned *time.Time `json:"last_scanned,omitempty" db:"last_scanned"`
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, userID int64, path, kind string) (int64, error) {
	var id int64
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO sources (user_id, path, kind) VALUES (?, ?, ?) RETURNING id
	`), userID, path, kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	return id, nil
}

// FindSource looks a source up by path within one user's sources.
func (db *DB) FindSource(ctx context.Context, userID int64, path string) (*Source, error) {
	var s Source
	err := db.conn.GetContext(ctx, &s, db.rebind(`
		SELECT id, user_id, path, kind, last_scanned FROM sources WHERE user_id = ? AND path = ?
	`), userID, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// ListSources returns every source of the user.
func (db *DB) ListSources(ctx context.Context, userID int64) ([]Source, error) {
	var sources []Source
	err := db.conn.SelectContext(ctx, &sources, db.rebind(`
		SELECT id, user_id, path, kind, last_scanned FROM sources WHERE user_id = ? ORDER BY id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources for user %d: %w", userID, err)
	}
	return sources, nil
}

// TouchSource sets the last_scanned timestamp of a source.
func (db *DB) TouchSource(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`), at.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
