// Package ledger defines the ports for the remote document store that owns
// transactions and recurring rules. Adapters are fallible black boxes:
// network and remote validation failures come back as errors and the
// caller decides whether to queue the write locally.
package ledger

import (
	"context"
	"errors"

	"github.com/estexav/Flowly/internal/core"
)

// ErrNotFound is returned when an entry id does not exist remotely, e.g.
// when editing an entry another device already deleted.
var ErrNotFound = errors.New("ledger: entry not found")

// Ports for the outbound ledger adapter.
type (
	EntryWriter interface {
		// CreateTransaction writes a new transaction and returns the
		// remote-assigned document id.
		CreateTransaction(ctx context.Context, tx core.Transaction) (string, error)

		// CreateRecurring writes a new recurring rule and returns the
		// remote-assigned document id.
		CreateRecurring(ctx context.Context, rule core.RecurringRule) (string, error)
	}

	EntryReader interface {
		// ListTransactions returns every transaction owned by the user.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

		// ListRecurrings returns every recurring rule owned by the user.
		ListRecurrings(ctx context.Context, userID string) ([]core.RecurringRule, error)

		// GetTransaction fetches a single transaction by remote id.
		// Returns ErrNotFound for deleted or unknown ids.
		GetTransaction(ctx context.Context, id string) (*core.Transaction, error)
	}

	EntryUpdater interface {
		UpdateTransaction(ctx context.Context, id string, patch map[string]any) error
		UpdateRecurring(ctx context.Context, id string, patch map[string]any) error
	}

	EntryDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
		DeleteRecurring(ctx context.Context, id string) error
	}
)

// Client is the full remote ledger surface.
type Client interface {
	EntryWriter
	EntryReader
	EntryUpdater
	EntryDeleter
}
