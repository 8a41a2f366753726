// Package session provides SQLite-backed persistence for in-flight
// screening conversations, so a restart of the process does not lose them.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/talentscout/screener/internal/interview"
)

// Store persists sessions as a JSON payload keyed by session id. The whole
// session is written on every turn; screening sessions are small enough
// that row-per-turn bookkeeping is not worth the schema.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates the schema if it
// does not exist yet.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		last_activity DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_last_activity
		ON sessions(last_activity);
	`
	_, err := db.Exec(schema)
	return err
}

// Load retrieves a session by id. Unknown ids return (nil, nil).
func (s *Store) Load(ctx context.Context, id string) (*interview.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ?`, id)

	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	var sess interview.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	return &sess, nil
}

// Save inserts or replaces the session row.
func (s *Store) Save(ctx context.Context, sess *interview.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, payload, created_at, last_activity)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			payload = excluded.payload,
			last_activity = excluded.last_activity`,
		sess.ID, string(sess.State), string(payload), sess.CreatedAt, sess.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Expire removes sessions whose last activity is older than the timeout and
// returns how many were deleted.
func (s *Store) Expire(ctx context.Context, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE last_activity < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return deleted, nil
}
