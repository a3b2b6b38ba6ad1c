// Package worker runs the background drain side of the sync pipeline: it
// answers AMQP sync requests and periodically sweeps every queue as a
// backup in case messages are lost.
package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/estexav/Flowly/internal/amqp"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/services"
)

// SyncWorker drives the sync engine from AMQP messages and a poll loop.
type SyncWorker struct {
	engine    *services.SyncEngine
	processor *services.SyncProcessor
	bus       *amqp.Client
	logger    *applog.Logger
}

func NewSyncWorker(engine *services.SyncEngine, processor *services.SyncProcessor, bus *amqp.Client, logger *applog.Logger) *SyncWorker {
	return &SyncWorker{
		engine:    engine,
		processor: processor,
		bus:       bus,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// Run starts the poll loop and, when a bus is configured, the AMQP
// consumer. Blocks until the context is cancelled or a component fails.
func (w *SyncWorker) Run(ctx context.Context) error {
	// Sweep queues left over from the previous run before accepting new
	// triggers
	w.processor.DrainAll(ctx)

	if err := w.processor.Start(ctx); err != nil {
		return fmt.Errorf("start sync processor: %w", err)
	}
	defer func() {
		if err := w.processor.Stop(context.Background()); err != nil {
			w.logger.Error("Sync processor shutdown failed", applog.FieldError, err)
		}
	}()

	if w.bus == nil {
		w.logger.InfoContext(ctx, "No message bus configured, relying on polling only")
		<-ctx.Done()
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.bus.ConsumeSyncRequests(gctx, func(msg *amqp.SyncRequestMessage) error {
			return w.HandleSyncRequest(gctx, msg)
		})
	})
	return g.Wait()
}

// HandleSyncRequest drains one user's queue in response to a bus message.
// Returning an error requeues the message.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	if msg.UserID == "" {
		w.logger.WarnContext(ctx, "Dropping sync request without user id")
		return nil
	}

	result, err := w.engine.SyncPending(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("drain pending queue: %w", err)
	}

	w.logger.InfoContext(ctx, "Handled sync request",
		applog.FieldUserID, msg.UserID,
		applog.FieldSyncedCount, result.SyncedCount,
		applog.FieldErrorCount, len(result.Errors))

	// Remote failures are not worth a requeue: the entries stay in the
	// local queue and the next drain retries them anyway.
	return nil
}
