package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/estexav/Flowly/internal/amqp"
	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger/memory"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/services"
	"github.com/estexav/Flowly/internal/store"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func newWorker(t *testing.T) (*SyncWorker, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "flowly.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	engine := services.NewSyncEngine(st, memory.New(), time.Second, testLogger())
	processor := services.NewSyncProcessor(st, engine, services.SyncProcessorConfig{PollInterval: time.Hour}, testLogger())
	return NewSyncWorker(engine, processor, nil, testLogger()), st
}

func TestHandleSyncRequest_DrainsQueue(t *testing.T) {
	w, st := newWorker(t)
	ctx := context.Background()

	pw := core.PendingWrite{
		LocalID: "x",
		Kind:    core.KindTransaction,
		Tx: &core.Transaction{
			UserID:      "u1",
			Amount:      10,
			Description: "Queued",
			Type:        core.Expense,
			Category:    "Food",
			Date:        core.NewDate(2024, 3, 1),
			Timestamp:   time.Now().UTC(),
		},
	}
	if err := st.EnqueuePending(ctx, "u1", pw); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}

	if err := w.HandleSyncRequest(ctx, amqp.NewSyncRequestMessage("u1")); err != nil {
		t.Fatalf("HandleSyncRequest: %v", err)
	}

	queue, err := st.GetPending(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("queue must be drained: %+v", queue)
	}
}

func TestHandleSyncRequest_EmptyUserIsDropped(t *testing.T) {
	w, _ := newWorker(t)
	if err := w.HandleSyncRequest(context.Background(), &amqp.SyncRequestMessage{}); err != nil {
		t.Fatalf("empty user id must be dropped without error, got %v", err)
	}
}
