// Package assistant turns transaction data into natural-language guidance.
// A remote text generator is tried first; every failure falls back to a
// deterministic template so the user always gets an answer.
package assistant

import "context"

// Intent is one of the fixed guidance requests the client can ask for.
type Intent string

const (
	IntentSummary      Intent = "summary"
	IntentCuts         Intent = "cuts"
	IntentPurchase     Intent = "purchase"
	IntentWeeklyBudget Intent = "weekly_budget"
	IntentChat         Intent = "chat"
)

// Valid reports whether the intent is one the engine knows.
func (i Intent) Valid() bool {
	switch i {
	case IntentSummary, IntentCuts, IntentPurchase, IntentWeeklyBudget, IntentChat:
		return true
	default:
		return false
	}
}

// GenerateOptions bounds a single generation call.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Generator produces text for a prompt. Implementations return an error on
// any failure; they never retry on their own.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
