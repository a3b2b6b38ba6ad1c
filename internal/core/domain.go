package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  EntryType = "Income"
	Expense EntryType = "Expense"
)

const (
	Weekly    Frequency = "Weekly"
	Biweekly  Frequency = "Biweekly"
	Monthly   Frequency = "Monthly"
	Bimonthly Frequency = "Bimonthly"
	Quarterly Frequency = "Quarterly"
	Annual    Frequency = "Annual"
)

const (
	KindTransaction EntryKind = "transaction"
	KindRecurring   EntryKind = "recurring"
)

type (
	EntryType string

	Frequency string

	EntryKind string

	// Transaction is a single ledger entry owned by exactly one user.
	// ID is assigned by the remote ledger on first successful write and
	// is empty while the entry sits in the pending queue.
	Transaction struct {
		ID          string    `json:"id,omitempty"`
		UserID      string    `json:"userId"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Type        EntryType `json:"type"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// RecurringRule is a repeating income or expense template.
	RecurringRule struct {
		ID          string    `json:"id,omitempty"`
		UserID      string    `json:"userId"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		Type        EntryType `json:"type"`
		Category    string    `json:"category"`
		Frequency   Frequency `json:"frequency"`
		StartDate   Date      `json:"start_date"`
		Active      bool      `json:"active"`
	}

	// CategoryTotal pairs a category with an aggregated expense amount.
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	// PendingWrite is an unsent transaction or recurring rule queued for a
	// later sync attempt. LocalID exists for log correlation only; the
	// remote create carries no dedup key, so a crash between a successful
	// create and the final queue rewrite can duplicate the entry.
	PendingWrite struct {
		LocalID  string         `json:"localId"`
		Kind     EntryKind      `json:"kind"`
		Tx       *Transaction   `json:"transaction,omitempty"`
		Rule     *RecurringRule `json:"recurring,omitempty"`
		QueuedAt time.Time      `json:"queuedAt"`
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidType        = errors.New("type must be Income or Expense")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyUserID        = errors.New("user id cannot be empty")
)

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Biweekly, Monthly, Bimonthly, Quarterly, Annual:
		return true
	default:
		return false
	}
}

// Validate checks a transaction before any network call. Validation
// failures are field-level and never retried.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUserID
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	return nil
}

// Validate checks a pending write before it is replayed against the ledger.
func (p PendingWrite) Validate() error {
	switch p.Kind {
	case KindTransaction:
		if p.Tx == nil {
			return errors.New("transaction pending write has no transaction")
		}
		return p.Tx.Validate()
	case KindRecurring:
		if p.Rule == nil {
			return errors.New("recurring pending write has no rule")
		}
		return p.Rule.Validate()
	default:
		return errors.New("unknown pending write kind: " + string(p.Kind))
	}
}
