// Package store implements the durable local cache: per-user snapshots of
// the last known transaction/recurring lists plus the pending-write queue.
// It is a fallback only, never a source of truth while the remote ledger is
// reachable.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/estexav/Flowly/internal/core"

	_ "modernc.org/sqlite"
)

// Snapshot kinds stored in cache_snapshots.
const (
	KindTransactions = "transactions"
	KindRecurrings   = "recurrings"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetCachedTransactions returns the last cached transaction list for the
// user. Absent snapshots yield an empty list, never nil for callers.
func (s *SQLiteStore) GetCachedTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := s.getSnapshot(ctx, userID, KindTransactions, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

// SetCachedTransactions overwrites the cached transaction list. No merge:
// the caller decides what the full list is.
func (s *SQLiteStore) SetCachedTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	return s.setSnapshot(ctx, userID, KindTransactions, txs)
}

// GetCachedRecurrings returns the last cached recurring-rule list.
func (s *SQLiteStore) GetCachedRecurrings(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	var out []core.RecurringRule
	if err := s.getSnapshot(ctx, userID, KindRecurrings, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.RecurringRule{}
	}
	return out, nil
}

// SetCachedRecurrings overwrites the cached recurring-rule list.
func (s *SQLiteStore) SetCachedRecurrings(ctx context.Context, userID string, rules []core.RecurringRule) error {
	return s.setSnapshot(ctx, userID, KindRecurrings, rules)
}

func (s *SQLiteStore) getSnapshot(ctx context.Context, userID, kind string, dest any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM cache_snapshots WHERE user_id = ? AND kind = ?`,
		userID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s snapshot: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", kind, err)
	}
	return nil
}

func (s *SQLiteStore) setSnapshot(ctx context.Context, userID, kind string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cache_snapshots (user_id, kind, payload, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, kind) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, kind, string(payload))
	if err != nil {
		return fmt.Errorf("write %s snapshot: %w", kind, err)
	}
	return nil
}

// EnqueuePending appends a write to the per-user FIFO queue. Safe to call
// while a drain is in flight: the drain deletes only the row ids it read in
// its snapshot, so rows inserted afterwards are never touched.
func (s *SQLiteStore) EnqueuePending(ctx context.Context, userID string, pw core.PendingWrite) error {
	payload, err := json.Marshal(pw)
	if err != nil {
		return fmt.Errorf("encode pending write: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_queue (user_id, payload) VALUES (?, ?)`,
		userID, string(payload))
	if err != nil {
		return fmt.Errorf("enqueue pending write: %w", err)
	}

	slog.DebugContext(ctx, "Pending write enqueued",
		"user_id", userID,
		"local_id", pw.LocalID,
		"entry_kind", pw.Kind)

	return nil
}

// PendingRow pairs a queued write with its queue row id. Ids anchor
// deletions to the exact rows a drain read.
type PendingRow struct {
	ID    int64
	Write core.PendingWrite
}

// SnapshotPending returns the user's queue in enqueue order, with row ids.
func (s *SQLiteStore) SnapshotPending(ctx context.Context, userID string) ([]PendingRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM pending_queue WHERE user_id = ? ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("read pending queue: %w", err)
	}
	defer rows.Close()

	out := []PendingRow{}
	for rows.Next() {
		var (
			id      int64
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan pending write: %w", err)
		}
		var pw core.PendingWrite
		if err := json.Unmarshal([]byte(payload), &pw); err != nil {
			return nil, fmt.Errorf("decode pending write: %w", err)
		}
		out = append(out, PendingRow{ID: id, Write: pw})
	}
	return out, rows.Err()
}

// GetPending returns the user's queue in enqueue order.
func (s *SQLiteStore) GetPending(ctx context.Context, userID string) ([]core.PendingWrite, error) {
	rows, err := s.SnapshotPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.PendingWrite, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Write)
	}
	return out, nil
}

// DeletePending removes exactly the given rows from the user's queue. The
// drain passes the ids of entries that reached the remote, so failed rows
// keep their position and writes enqueued after the snapshot survive.
func (s *SQLiteStore) DeletePending(ctx context.Context, userID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM pending_queue WHERE user_id = ? AND id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return fmt.Errorf("delete pending rows: %w", err)
	}
	return nil
}

// UsersWithPending lists the users that currently have queued writes. The
// worker uses this for its periodic full drain.
func (s *SQLiteStore) UsersWithPending(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM pending_queue ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users with pending writes: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
