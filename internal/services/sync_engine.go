package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/store"
)

// SyncResult reports one drain of a user's pending queue.
type SyncResult struct {
	SyncedCount int      `json:"syncedCount"`
	Errors      []string `json:"errors"`

	// Deferred reports that the drain was handed to the worker over the
	// message bus instead of running in this process.
	Deferred bool `json:"deferred,omitempty"`
}

// SyncEngine flushes queued writes to the remote ledger with at-least-once
// delivery. Writes are replayed in enqueue order; failures stay queued for
// the next drain.
type SyncEngine struct {
	store         *store.SQLiteStore
	writer        ledger.EntryWriter
	remoteTimeout time.Duration
	logger        *applog.Logger

	// Serializes drains per user so two concurrent triggers (view mount
	// plus worker tick) cannot write back divergent remaining sets.
	group singleflight.Group
}

func NewSyncEngine(st *store.SQLiteStore, writer ledger.EntryWriter, remoteTimeout time.Duration, logger *applog.Logger) *SyncEngine {
	return &SyncEngine{
		store:         st,
		writer:        writer,
		remoteTimeout: remoteTimeout,
		logger:        logger.WithComponent(applog.ComponentSync),
	}
}

// SyncPending drains the user's queue. Concurrent calls for the same user
// share one drain and its result.
func (e *SyncEngine) SyncPending(ctx context.Context, userID string) (SyncResult, error) {
	v, err, _ := e.group.Do(userID, func() (any, error) {
		return e.drain(ctx, userID)
	})
	if err != nil {
		return SyncResult{Errors: []string{}}, err
	}
	return v.(SyncResult), nil
}

func (e *SyncEngine) drain(ctx context.Context, userID string) (SyncResult, error) {
	result := SyncResult{Errors: []string{}}

	queue, err := e.store.SnapshotPending(ctx, userID)
	if err != nil {
		return result, err
	}
	if len(queue) == 0 {
		return result, nil
	}

	e.logger.InfoContext(ctx, "Draining pending queue",
		applog.FieldUserID, userID,
		applog.FieldQueueDepth, len(queue))

	var synced []int64
	for _, row := range queue {
		if err := e.replay(ctx, row.Write); err != nil {
			result.Errors = append(result.Errors, err.Error())
			e.logger.WarnContext(ctx, "Pending write failed, retained for next drain",
				applog.FieldUserID, userID,
				applog.FieldLocalID, row.Write.LocalID,
				applog.FieldError, err)
			continue
		}
		result.SyncedCount++
		synced = append(synced, row.ID)
	}

	// Synced rows are deleted in one statement at the end, by the ids read
	// in the snapshot. Failed rows keep their queue position and writes
	// enqueued while the drain ran are untouched. A crash before this point
	// leaves the snapshot intact and re-attempts everything next drain.
	if err := e.store.DeletePending(ctx, userID, synced); err != nil {
		return result, err
	}

	e.logger.InfoContext(ctx, "Drain finished",
		applog.FieldUserID, userID,
		applog.FieldSyncedCount, result.SyncedCount,
		applog.FieldErrorCount, len(result.Errors))

	return result, nil
}

func (e *SyncEngine) replay(ctx context.Context, pw core.PendingWrite) error {
	if err := pw.Validate(); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	switch pw.Kind {
	case core.KindRecurring:
		_, err := e.writer.CreateRecurring(callCtx, *pw.Rule)
		return err
	default:
		_, err := e.writer.CreateTransaction(callCtx, *pw.Tx)
		return err
	}
}
