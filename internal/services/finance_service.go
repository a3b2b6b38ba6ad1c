package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/store"
)

// SavedLocallyMessage is the informational state shown when a write could
// not reach the remote ledger and was queued instead.
const SavedLocallyMessage = "Saved locally, will sync when the connection returns"

// SyncPublisher notifies the background worker that a user has queued
// writes. Optional: a nil publisher means polling alone picks them up.
type SyncPublisher interface {
	PublishSyncRequest(ctx context.Context, userID string) error
}

// WriteOutcome describes where a create landed.
type WriteOutcome struct {
	ID      string `json:"id,omitempty"`
	Synced  bool   `json:"synced"`
	Message string `json:"message,omitempty"`
}

// FinanceService orchestrates entry writes and reads across the remote
// ledger, the local cache, and the pending queue. The remote is the source
// of truth; the cache only answers when the remote cannot.
type FinanceService struct {
	store         *store.SQLiteStore
	ledger        ledger.Client
	sync          *SyncEngine
	publisher     SyncPublisher
	remoteTimeout time.Duration
	logger        *applog.Logger
}

func NewFinanceService(
	st *store.SQLiteStore,
	lc ledger.Client,
	sync *SyncEngine,
	publisher SyncPublisher,
	remoteTimeout time.Duration,
	logger *applog.Logger,
) *FinanceService {
	return &FinanceService{
		store:         st,
		ledger:        lc,
		sync:          sync,
		publisher:     publisher,
		remoteTimeout: remoteTimeout,
		logger:        logger.WithComponent(applog.ComponentLedger),
	}
}

// CreateTransaction validates and writes a transaction to the remote
// ledger. When the remote is unreachable the entry is queued and appended
// to the cache so the movement list stays consistent with what the user
// just did.
func (s *FinanceService) CreateTransaction(ctx context.Context, tx core.Transaction) (WriteOutcome, error) {
	tx.Category = core.NormalizeCategory(tx.Category)
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	if err := tx.Validate(); err != nil {
		return WriteOutcome{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	id, err := s.ledger.CreateTransaction(callCtx, tx)
	cancel()
	if err == nil {
		tx.ID = id
		s.appendToTransactionCache(ctx, tx)
		return WriteOutcome{ID: id, Synced: true}, nil
	}

	s.logger.WarnContext(ctx, "Remote write failed, queuing locally",
		applog.FieldUserID, tx.UserID,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldError, err)

	pw := core.PendingWrite{
		LocalID:  uuid.NewString(),
		Kind:     core.KindTransaction,
		Tx:       &tx,
		QueuedAt: time.Now().UTC(),
	}
	if qerr := s.store.EnqueuePending(ctx, tx.UserID, pw); qerr != nil {
		return WriteOutcome{}, qerr
	}
	s.appendToTransactionCache(ctx, tx)
	s.requestSync(ctx, tx.UserID)

	return WriteOutcome{Synced: false, Message: SavedLocallyMessage}, nil
}

// ListTransactions returns the user's transactions, preferring the remote
// ledger. On success the cache snapshot is overwritten wholesale; on
// failure the cache plus any queued-but-unsent entries answer instead.
// fromCache tells the caller which path served the data.
func (s *FinanceService) ListTransactions(ctx context.Context, userID string) (txs []core.Transaction, fromCache bool, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	remote, rerr := s.ledger.ListTransactions(callCtx, userID)
	cancel()
	if rerr == nil {
		if cerr := s.store.SetCachedTransactions(ctx, userID, remote); cerr != nil {
			s.logger.WarnContext(ctx, "Cache refresh failed",
				applog.FieldUserID, userID,
				applog.FieldError, cerr)
		}
		return remote, false, nil
	}

	s.logger.WarnContext(ctx, "Remote read failed, serving cache",
		applog.FieldUserID, userID,
		applog.FieldError, rerr)

	cached, err := s.store.GetCachedTransactions(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	pending, err := s.store.GetPending(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	for _, pw := range pending {
		if pw.Kind == core.KindTransaction && pw.Tx != nil && !containsTransaction(cached, *pw.Tx) {
			cached = append(cached, *pw.Tx)
		}
	}
	return cached, true, nil
}

// GetTransaction fetches one entry for the edit flow. ledger.ErrNotFound is
// terminal: the entry was deleted elsewhere and the caller should leave the
// edit view.
func (s *FinanceService) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	return s.ledger.GetTransaction(callCtx, id)
}

// UpdateTransaction patches an existing remote entry. Unlike creates,
// updates are not queued offline: the id only exists remotely.
func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, id string, patch map[string]any) error {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	err := s.ledger.UpdateTransaction(callCtx, id, patch)
	cancel()
	if err != nil {
		return err
	}
	s.refreshTransactionCache(ctx, userID)
	return nil
}

// DeleteTransaction removes a remote entry. ErrNotFound is terminal.
func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	err := s.ledger.DeleteTransaction(callCtx, id)
	cancel()
	if err != nil {
		return err
	}
	s.refreshTransactionCache(ctx, userID)
	return nil
}

// CreateRecurring mirrors CreateTransaction for recurring rules.
func (s *FinanceService) CreateRecurring(ctx context.Context, rule core.RecurringRule) (WriteOutcome, error) {
	rule.Category = core.NormalizeCategory(rule.Category)
	if err := rule.Validate(); err != nil {
		return WriteOutcome{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	id, err := s.ledger.CreateRecurring(callCtx, rule)
	cancel()
	if err == nil {
		rule.ID = id
		s.appendToRecurringCache(ctx, rule)
		return WriteOutcome{ID: id, Synced: true}, nil
	}

	s.logger.WarnContext(ctx, "Remote write failed, queuing locally",
		applog.FieldUserID, rule.UserID,
		applog.FieldEntryKind, core.KindRecurring,
		applog.FieldError, err)

	pw := core.PendingWrite{
		LocalID:  uuid.NewString(),
		Kind:     core.KindRecurring,
		Rule:     &rule,
		QueuedAt: time.Now().UTC(),
	}
	if qerr := s.store.EnqueuePending(ctx, rule.UserID, pw); qerr != nil {
		return WriteOutcome{}, qerr
	}
	s.appendToRecurringCache(ctx, rule)
	s.requestSync(ctx, rule.UserID)

	return WriteOutcome{Synced: false, Message: SavedLocallyMessage}, nil
}

// ListRecurrings mirrors ListTransactions for recurring rules.
func (s *FinanceService) ListRecurrings(ctx context.Context, userID string) (rules []core.RecurringRule, fromCache bool, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	remote, rerr := s.ledger.ListRecurrings(callCtx, userID)
	cancel()
	if rerr == nil {
		if cerr := s.store.SetCachedRecurrings(ctx, userID, remote); cerr != nil {
			s.logger.WarnContext(ctx, "Cache refresh failed",
				applog.FieldUserID, userID,
				applog.FieldError, cerr)
		}
		return remote, false, nil
	}

	cached, err := s.store.GetCachedRecurrings(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	pending, err := s.store.GetPending(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	for _, pw := range pending {
		if pw.Kind == core.KindRecurring && pw.Rule != nil {
			cached = append(cached, *pw.Rule)
		}
	}
	return cached, true, nil
}

func (s *FinanceService) UpdateRecurring(ctx context.Context, userID, id string, patch map[string]any) error {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	err := s.ledger.UpdateRecurring(callCtx, id, patch)
	cancel()
	if err != nil {
		return err
	}
	s.refreshRecurringCache(ctx, userID)
	return nil
}

func (s *FinanceService) DeleteRecurring(ctx context.Context, userID, id string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	err := s.ledger.DeleteRecurring(callCtx, id)
	cancel()
	if err != nil {
		return err
	}
	s.refreshRecurringCache(ctx, userID)
	return nil
}

// SyncPending flushes the user's queue. With a message bus configured the
// worker owns draining, so the request is published instead of drained here
// and exactly one process rewrites each user's queue. Without a bus, or
// when publishing fails, the drain runs locally.
func (s *FinanceService) SyncPending(ctx context.Context, userID string) (SyncResult, error) {
	if s.publisher != nil {
		err := s.publisher.PublishSyncRequest(ctx, userID)
		if err == nil {
			return SyncResult{Errors: []string{}, Deferred: true}, nil
		}
		s.logger.WarnContext(ctx, "Sync request publish failed, draining locally",
			applog.FieldUserID, userID,
			applog.FieldError, err)
	}
	return s.sync.SyncPending(ctx, userID)
}

func (s *FinanceService) requestSync(ctx context.Context, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSyncRequest(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "Sync request publish failed",
			applog.FieldUserID, userID,
			applog.FieldError, err)
	}
}

func (s *FinanceService) appendToTransactionCache(ctx context.Context, tx core.Transaction) {
	cached, err := s.store.GetCachedTransactions(ctx, tx.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Cache read failed", applog.FieldError, err)
		return
	}
	cached = append(cached, tx)
	if err := s.store.SetCachedTransactions(ctx, tx.UserID, cached); err != nil {
		s.logger.WarnContext(ctx, "Cache append failed", applog.FieldError, err)
	}
}

func (s *FinanceService) appendToRecurringCache(ctx context.Context, rule core.RecurringRule) {
	cached, err := s.store.GetCachedRecurrings(ctx, rule.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Cache read failed", applog.FieldError, err)
		return
	}
	cached = append(cached, rule)
	if err := s.store.SetCachedRecurrings(ctx, rule.UserID, cached); err != nil {
		s.logger.WarnContext(ctx, "Cache append failed", applog.FieldError, err)
	}
}

// refreshTransactionCache re-reads the remote list after a mutation so the
// cache never shows the deleted or stale entry. Best effort only.
func (s *FinanceService) refreshTransactionCache(ctx context.Context, userID string) {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	remote, err := s.ledger.ListTransactions(callCtx, userID)
	cancel()
	if err != nil {
		return
	}
	if err := s.store.SetCachedTransactions(ctx, userID, remote); err != nil {
		s.logger.WarnContext(ctx, "Cache refresh failed", applog.FieldError, err)
	}
}

func (s *FinanceService) refreshRecurringCache(ctx context.Context, userID string) {
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	remote, err := s.ledger.ListRecurrings(callCtx, userID)
	cancel()
	if err != nil {
		return
	}
	if err := s.store.SetCachedRecurrings(ctx, userID, remote); err != nil {
		s.logger.WarnContext(ctx, "Cache refresh failed", applog.FieldError, err)
	}
}

// containsTransaction guards against listing a queued entry twice when the
// cache already holds it from the optimistic append.
func containsTransaction(list []core.Transaction, tx core.Transaction) bool {
	for _, t := range list {
		if t.ID == "" && tx.ID == "" &&
			t.Description == tx.Description &&
			t.Amount == tx.Amount &&
			t.Timestamp.Equal(tx.Timestamp) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether an error from an update, delete, or get means
// the entry no longer exists remotely. Treated as terminal by handlers.
func IsNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound)
}
