package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/store"
)

// SyncProcessorConfig holds configuration for the background drain loop.
type SyncProcessorConfig struct {
	// PollInterval is how often to look for users with queued writes.
	PollInterval time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults.
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{PollInterval: 30 * time.Second}
}

// SyncProcessor periodically drains every user's pending queue. It is the
// safety net behind the event-driven triggers: even if no sync request ever
// arrives, queued writes leave the device once connectivity returns.
type SyncProcessor struct {
	store  *store.SQLiteStore
	engine *SyncEngine
	config SyncProcessorConfig
	logger *applog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(st *store.SQLiteStore, engine *SyncEngine, config SyncProcessorConfig, logger *applog.Logger) *SyncProcessor {
	return &SyncProcessor{
		store:  st,
		engine: engine,
		config: config,
		logger: logger.WithComponent(applog.ComponentSync),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for the in-flight drain to
// finish. A drain is never interrupted mid-queue; the final queue rewrite
// keeps the persisted state consistent even on shutdown.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running.
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Drain immediately on startup to flush anything left from a crash
	p.DrainAll(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.DrainAll(ctx)
		}
	}
}

// DrainAll runs one drain for every user with queued writes.
func (p *SyncProcessor) DrainAll(ctx context.Context) {
	users, err := p.store.UsersWithPending(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list users with pending writes",
			applog.FieldError, err)
		return
	}

	for _, userID := range users {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		result, err := p.engine.SyncPending(ctx, userID)
		if err != nil {
			p.logger.ErrorContext(ctx, "Drain failed",
				applog.FieldUserID, userID,
				applog.FieldError, err)
			continue
		}
		if result.SyncedCount > 0 || len(result.Errors) > 0 {
			p.logger.InfoContext(ctx, "Background drain finished",
				applog.FieldUserID, userID,
				applog.FieldSyncedCount, result.SyncedCount,
				applog.FieldErrorCount, len(result.Errors))
		}
	}
}
