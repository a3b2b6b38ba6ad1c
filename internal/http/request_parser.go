package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/estexav/Flowly/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a size-capped JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseAmountField accepts an amount as either a JSON number or a string.
// Clients send strings because the entry field allows "12,50".
func parseAmountField(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, core.ErrInvalidAmount
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return core.ParseAmount(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, core.ErrInvalidAmount
	}
	if f <= 0 {
		return 0, core.ErrInvalidAmount
	}
	return f, nil
}

type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

func (req transactionRequest) toTransaction(userID string) (core.Transaction, error) {
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date := core.Today()
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, err
		}
	}

	return core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Description: req.Description,
		Type:        core.EntryType(req.Type),
		Category:    req.Category,
		Date:        date,
		Timestamp:   time.Now().UTC(),
	}, nil
}

type recurringRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Frequency   string          `json:"frequency"`
	StartDate   string          `json:"start_date"`
	Active      *bool           `json:"active"`
}

func (req recurringRequest) toRule(userID string) (core.RecurringRule, error) {
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}

	startDate := core.Today()
	if req.StartDate != "" {
		startDate, err = core.ParseDate(req.StartDate)
		if err != nil {
			return core.RecurringRule{}, err
		}
	}

	// New rules default to active unless the client says otherwise.
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return core.RecurringRule{
		UserID:      userID,
		Amount:      amount,
		Description: req.Description,
		Type:        core.EntryType(req.Type),
		Category:    req.Category,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   startDate,
		Active:      active,
	}, nil
}

// buildPatch whitelists updatable fields from a raw request body and
// normalizes the amount, which may arrive as a string.
func buildPatch(body map[string]json.RawMessage, allowed []string) (map[string]any, error) {
	patch := make(map[string]any)
	for _, field := range allowed {
		raw, ok := body[field]
		if !ok {
			continue
		}
		switch field {
		case "amount":
			amount, err := parseAmountField(raw)
			if err != nil {
				return nil, err
			}
			patch[field] = amount
		case "active":
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return nil, fmt.Errorf("invalid active flag: %w", err)
			}
			patch[field] = b
		case "date", "start_date":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, core.ErrInvalidDate
			}
			date, err := core.ParseDate(s)
			if err != nil {
				return nil, err
			}
			patch[field] = date.String()
		case "type":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil || !core.EntryType(s).Valid() {
				return nil, core.ErrInvalidType
			}
			patch[field] = s
		case "frequency":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil || !core.Frequency(s).Valid() {
				return nil, core.ErrInvalidFrequency
			}
			patch[field] = s
		case "category":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("invalid category: %w", err)
			}
			patch[field] = core.NormalizeCategory(s)
		default:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", field, err)
			}
			patch[field] = s
		}
	}
	if len(patch) == 0 {
		return nil, errors.New("no updatable fields in request")
	}
	return patch, nil
}

var (
	transactionPatchFields = []string{"amount", "description", "type", "category", "date"}
	recurringPatchFields   = []string{"amount", "description", "category", "frequency", "active"}
)
