package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger/memory"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/store"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "flowly.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func pendingTx(userID string, amount float64, typ core.EntryType, desc string) core.PendingWrite {
	return core.PendingWrite{
		LocalID: desc,
		Kind:    core.KindTransaction,
		Tx: &core.Transaction{
			UserID:      userID,
			Amount:      amount,
			Description: desc,
			Type:        typ,
			Category:    "Other",
			Date:        core.NewDate(2024, 3, 1),
			Timestamp:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		QueuedAt: time.Now().UTC(),
	}
}

// scriptedWriter fails calls according to a script, then records the order
// of successful writes.
type scriptedWriter struct {
	failures []error
	call     int
	written  []string
}

func (w *scriptedWriter) CreateTransaction(_ context.Context, tx core.Transaction) (string, error) {
	defer func() { w.call++ }()
	if w.call < len(w.failures) && w.failures[w.call] != nil {
		return "", w.failures[w.call]
	}
	w.written = append(w.written, tx.Description)
	return "r1", nil
}

func (w *scriptedWriter) CreateRecurring(_ context.Context, rule core.RecurringRule) (string, error) {
	defer func() { w.call++ }()
	if w.call < len(w.failures) && w.failures[w.call] != nil {
		return "", w.failures[w.call]
	}
	w.written = append(w.written, rule.Description)
	return "r1", nil
}

// racingWriter enqueues another pending write for the same user while the
// drain is replaying, mimicking the UI write path racing a drain.
type racingWriter struct {
	st       *store.SQLiteStore
	enqueued bool
}

func (w *racingWriter) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if !w.enqueued {
		w.enqueued = true
		if err := w.st.EnqueuePending(ctx, tx.UserID, pendingTx(tx.UserID, 5, core.Expense, "mid-drain")); err != nil {
			return "", err
		}
	}
	return "r1", nil
}

func (w *racingWriter) CreateRecurring(_ context.Context, _ core.RecurringRule) (string, error) {
	return "r1", nil
}

func TestSyncPending_KeepsWriteEnqueuedDuringDrain(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 50, core.Expense, "before-drain")); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}

	engine := NewSyncEngine(st, &racingWriter{st: st}, time.Second, testLogger())

	result, err := engine.SyncPending(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncPending: %v", err)
	}
	if result.SyncedCount != 1 || len(result.Errors) != 0 {
		t.Fatalf("drain = %+v", result)
	}

	queue, err := st.GetPending(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(queue) != 1 || queue[0].LocalID != "mid-drain" {
		t.Fatalf("write enqueued during the drain must survive it, got %+v", queue)
	}

	// The next drain picks it up.
	second, err := engine.SyncPending(ctx, "u1")
	if err != nil {
		t.Fatalf("second SyncPending: %v", err)
	}
	if second.SyncedCount != 1 {
		t.Fatalf("second drain = %+v", second)
	}
	queue, _ = st.GetPending(ctx, "u1")
	if len(queue) != 0 {
		t.Fatalf("queue must be empty after both drains: %+v", queue)
	}
}

func TestSyncPending_EmptyQueueSkipsNetwork(t *testing.T) {
	st := newTestStore(t)
	remote := memory.New()
	remote.FailWith(errors.New("must not be called"))
	engine := NewSyncEngine(st, remote, time.Second, testLogger())

	result, err := engine.SyncPending(context.Background(), "u1")
	if err != nil {
		t.Fatalf("SyncPending: %v", err)
	}
	if result.SyncedCount != 0 || len(result.Errors) != 0 {
		t.Fatalf("empty queue must yield {0, []}, got %+v", result)
	}
}

func TestSyncPending_PartialFailureRetainsEntry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 50, core.Expense, "groceries")); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}
	if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 1200, core.Income, "salary")); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}

	writer := &scriptedWriter{failures: []error{errors.New("network unreachable"), nil}}
	engine := NewSyncEngine(st, writer, time.Second, testLogger())

	result, err := engine.SyncPending(ctx, "u1")
	if err != nil {
		t.Fatalf("SyncPending: %v", err)
	}
	if result.SyncedCount != 1 {
		t.Errorf("syncedCount = %d, want 1", result.SyncedCount)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one message", result.Errors)
	}

	queue, err := st.GetPending(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(queue) != 1 || queue[0].Tx.Description != "groceries" {
		t.Fatalf("queue must retain exactly the failed entry, got %+v", queue)
	}
}

func TestSyncPending_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 50, core.Expense, "groceries")); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}

	engine := NewSyncEngine(st, memory.New(), time.Second, testLogger())

	first, err := engine.SyncPending(ctx, "u1")
	if err != nil {
		t.Fatalf("first SyncPending: %v", err)
	}
	if first.SyncedCount != 1 || len(first.Errors) != 0 {
		t.Fatalf("first drain = %+v", first)
	}

	second, err := engine.SyncPending(ctx, "u1")
	if err != nil {
		t.Fatalf("second SyncPending: %v", err)
	}
	if second.SyncedCount != 0 || len(second.Errors) != 0 {
		t.Fatalf("second drain must be a no-op, got %+v", second)
	}

	queue, _ := st.GetPending(ctx, "u1")
	if len(queue) != 0 {
		t.Fatalf("queue must be empty after full drain: %+v", queue)
	}
}

func TestSyncPending_ProcessesInEnqueueOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, desc := range []string{"first", "second", "third"} {
		if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 10, core.Expense, desc)); err != nil {
			t.Fatalf("EnqueuePending: %v", err)
		}
	}

	writer := &scriptedWriter{}
	engine := NewSyncEngine(st, writer, time.Second, testLogger())

	if _, err := engine.SyncPending(ctx, "u1"); err != nil {
		t.Fatalf("SyncPending: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(writer.written) != 3 {
		t.Fatalf("written = %v", writer.written)
	}
	for i := range want {
		if writer.written[i] != want[i] {
			t.Fatalf("writes out of order: %v", writer.written)
		}
	}
}

func TestSyncProcessor_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.EnqueuePending(ctx, "u1", pendingTx("u1", 10, core.Expense, "queued")); err != nil {
		t.Fatalf("EnqueuePending: %v", err)
	}

	engine := NewSyncEngine(st, memory.New(), time.Second, testLogger())
	p := NewSyncProcessor(st, engine, SyncProcessorConfig{PollInterval: time.Hour}, testLogger())

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("second Start must fail while running")
	}

	// The startup drain flushes the queue without waiting for a tick
	deadline := time.After(2 * time.Second)
	for {
		queue, err := st.GetPending(ctx, "u1")
		if err != nil {
			t.Fatalf("GetPending: %v", err)
		}
		if len(queue) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("startup drain did not flush queue: %+v", queue)
		case <-time.After(10 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Fatal("processor still marked running after Stop")
	}
}
