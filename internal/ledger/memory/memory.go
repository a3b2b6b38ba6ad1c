// Package memory is an in-process ledger adapter. It backs local
// development (LEDGER_BACKEND=memory) and the test suites; failure
// injection simulates the remote going unreachable.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	next  int
	txs   map[string]core.Transaction
	rules map[string]core.RecurringRule
	order []string

	failErr error
}

func New() *Store {
	return &Store{
		txs:   map[string]core.Transaction{},
		rules: map[string]core.RecurringRule{},
	}
}

// FailWith makes every subsequent call return err until Heal is called.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Heal clears a previously injected failure.
func (s *Store) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	id := s.nextID()
	tx.ID = id
	s.txs[id] = tx
	s.order = append(s.order, id)
	return id, nil
}

func (s *Store) CreateRecurring(_ context.Context, rule core.RecurringRule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	id := s.nextID()
	rule.ID = id
	s.rules[id] = rule
	s.order = append(s.order, id)
	return id, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	out := []core.Transaction{}
	for _, id := range s.order {
		if tx, ok := s.txs[id]; ok && tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) ListRecurrings(_ context.Context, userID string) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	out := []core.RecurringRule{}
	for _, id := range s.order {
		if r, ok := s.rules[id]; ok && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	tx, ok := s.txs[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := tx
	return &cp, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	tx, ok := s.txs[id]
	if !ok {
		return ledger.ErrNotFound
	}
	applyTransactionPatch(&tx, patch)
	s.txs[id] = tx
	return nil
}

func (s *Store) UpdateRecurring(_ context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	r, ok := s.rules[id]
	if !ok {
		return ledger.ErrNotFound
	}
	applyRecurringPatch(&r, patch)
	s.rules[id] = r
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if _, ok := s.txs[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if _, ok := s.rules[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *Store) nextID() string {
	s.next++
	return fmt.Sprintf("mem:%d", s.next)
}

func applyTransactionPatch(tx *core.Transaction, patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "amount":
			if f, ok := toFloat(v); ok {
				tx.Amount = f
			}
		case "description":
			if s, ok := v.(string); ok {
				tx.Description = s
			}
		case "type":
			if s, ok := v.(string); ok {
				tx.Type = core.EntryType(s)
			}
		case "category":
			if s, ok := v.(string); ok {
				tx.Category = s
			}
		case "date":
			if s, ok := v.(string); ok {
				if d, err := core.ParseDate(s); err == nil {
					tx.Date = d
				}
			}
		}
	}
}

func applyRecurringPatch(r *core.RecurringRule, patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "amount":
			if f, ok := toFloat(v); ok {
				r.Amount = f
			}
		case "description":
			if s, ok := v.(string); ok {
				r.Description = s
			}
		case "category":
			if s, ok := v.(string); ok {
				r.Category = s
			}
		case "frequency":
			if s, ok := v.(string); ok {
				r.Frequency = core.Frequency(s)
			}
		case "active":
			if b, ok := v.(bool); ok {
				r.Active = b
			}
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
