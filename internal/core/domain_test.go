package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:      "user-1",
		Amount:      42.50,
		Description: "Groceries",
		Type:        Expense,
		Category:    "Food",
		Date:        NewDate(2024, 3, 15),
		Timestamp:   time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"empty user", func(tx *Transaction) { tx.UserID = " " }, ErrEmptyUserID},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = -5 }, ErrInvalidAmount},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"bad type", func(tx *Transaction) { tx.Type = "Transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringRule_Validate(t *testing.T) {
	rule := RecurringRule{
		UserID:      "user-1",
		Amount:      9.99,
		Description: "Streaming subscription",
		Type:        Expense,
		Category:    "Entertainment",
		Frequency:   Monthly,
		StartDate:   NewDate(2024, 1, 1),
		Active:      true,
	}
	if err := rule.Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	bad := rule
	bad.Frequency = "Fortnightly"
	if err := bad.Validate(); err != ErrInvalidFrequency {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidFrequency)
	}
}

func TestPendingWrite_Validate(t *testing.T) {
	tx := validTransaction()
	p := PendingWrite{LocalID: "abc", Kind: KindTransaction, Tx: &tx, QueuedAt: time.Now()}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid pending write rejected: %v", err)
	}

	empty := PendingWrite{Kind: KindTransaction}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for pending write without payload")
	}

	unknown := PendingWrite{Kind: "note"}
	if err := unknown.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 7, 4)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-07-04"` {
		t.Fatalf("marshal = %s, want \"2024-07-04\"", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip mismatch: %v != %v", back, d)
	}
}

func TestDate_MonthsUntil(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		target Date
		want   int
	}{
		{NewDate(2024, 7, 1), 6},
		{NewDate(2024, 1, 30), 0},
		{NewDate(2023, 12, 1), 0}, // past dates clamp to zero
		{NewDate(2025, 1, 15), 12},
	}
	for _, tt := range tests {
		if got := tt.target.MonthsUntil(now); got != tt.want {
			t.Errorf("MonthsUntil(%s) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("Food"); got != "Food" {
		t.Errorf("known category changed: %s", got)
	}
	if got := NormalizeCategory(""); got != DefaultCategory {
		t.Errorf("empty category = %s, want %s", got, DefaultCategory)
	}
	if got := NormalizeCategory("Crypto"); got != DefaultCategory {
		t.Errorf("unknown category = %s, want %s", got, DefaultCategory)
	}
}
