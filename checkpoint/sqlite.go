package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hupe1980/agentforge/core"
)

// SQLiteStore persists checkpoints to SQLite. It is suitable for
// single-process production use. The one-row-per-thread upsert keeps Save
// atomic: a concurrent Load sees either the previous or the new checkpoint,
// never a partial write.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite checkpoint database. The path
// should be a file path (e.g. "./checkpoints.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT PRIMARY KEY,
			pending_node TEXT NOT NULL DEFAULT '',
			seq INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			state BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load implements core.CheckpointStore.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	var (
		pendingNode string
		seq         int
		updatedAt   string
		stateBytes  []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT pending_node, seq, updated_at, state FROM checkpoints
		WHERE thread_id = ?
	`, threadID).Scan(&pendingNode, &seq, &updatedAt, &stateBytes)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var state core.State
	if err := json.Unmarshal(stateBytes, &state); err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}

	cp := &core.Checkpoint{
		ThreadID:    threadID,
		State:       state,
		PendingNode: pendingNode,
		Seq:         seq,
	}
	cp.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return cp, nil
}

// Save implements core.CheckpointStore.
func (s *SQLiteStore) Save(ctx context.Context, cp *core.Checkpoint) error {
	stateBytes, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("encode checkpoint state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, pending_node, seq, updated_at, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			pending_node = excluded.pending_node,
			seq = excluded.seq,
			updated_at = excluded.updated_at,
			state = excluded.state
	`, cp.ThreadID, cp.PendingNode, cp.Seq, cp.UpdatedAt.UTC().Format(time.RFC3339Nano), stateBytes)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for threadID.
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, threadID)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
