package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/estexav/Flowly/internal/core"
	applog "github.com/estexav/Flowly/internal/log"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(context.Context, string, GenerateOptions) (string, error) {
	return g.text, g.err
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{Amount: 1000, Type: core.Income},
		{Amount: 300, Type: core.Expense, Category: "Food"},
		{Amount: 200, Type: core.Expense, Category: "Transport"},
	}
}

func TestRespond_UsesGeneratorWhenAvailable(t *testing.T) {
	e := NewEngine(&stubGenerator{text: "generated advice"}, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentSummary, "", sampleTransactions())
	if got != "generated advice" {
		t.Fatalf("Respond = %q", got)
	}
}

func TestRespond_FallbackMasksGeneratorFailure(t *testing.T) {
	e := NewEngine(&stubGenerator{err: errors.New("timeout")}, time.Second, testLogger())

	for _, intent := range []Intent{IntentSummary, IntentCuts, IntentPurchase, IntentWeeklyBudget, IntentChat} {
		t.Run(string(intent), func(t *testing.T) {
			got := e.Respond(context.Background(), intent, "can I afford a laptop?", sampleTransactions())
			if got == "" {
				t.Fatal("fallback must never be empty")
			}
			if strings.Contains(got, "error") || strings.Contains(got, "timeout") {
				t.Fatalf("generator failure must be masked: %q", got)
			}
		})
	}
}

func TestRespond_NilGeneratorUsesHeuristics(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentSummary, "", sampleTransactions())
	if !strings.Contains(got, "1000.00") || !strings.Contains(got, "500.00") {
		t.Fatalf("summary fallback must embed two-decimal figures: %q", got)
	}
}

func TestHeuristicSummary_Figures(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentSummary, "", sampleTransactions())
	for _, want := range []string{"$1000.00", "$500.00", "Food ($300.00)"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestHeuristicCuts_TopTwoPercentages(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentCuts, "", sampleTransactions())
	// 10% off Food (300) and 5% off Transport (200)
	for _, want := range []string{"Food: cut 10% to save $30.00", "Transport: cut 5% to save $10.00", "$40.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("cuts missing %q:\n%s", want, got)
		}
	}
}

func TestHeuristicPurchase_Thresholds(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentPurchase, "", sampleTransactions())
	// disposable 500: safe 25% = 125, avoid 60% = 300
	for _, want := range []string{"$125.00", "$300.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("purchase advice missing %q:\n%s", want, got)
		}
	}
}

func TestHeuristicWeeklyBudget_QuartersSuggestedBudget(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentWeeklyBudget, "", sampleTransactions())
	// Food 300 is a top-2 category: budget 270, weekly 67.50
	if !strings.Contains(got, "Food: $67.50/week") {
		t.Fatalf("weekly budget missing trimmed Food figure:\n%s", got)
	}
}

func TestHeuristicChat_Tiers(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	got := e.Respond(context.Background(), IntentChat, "what can I buy?", sampleTransactions())
	// disposable 500: tiers 25 / 75 / 150
	for _, want := range []string{"$25.00", "$75.00", "$150.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("chat fallback missing %q:\n%s", want, got)
		}
	}
}

func TestRespond_EmptyTransactions(t *testing.T) {
	e := NewEngine(nil, time.Second, testLogger())
	for _, intent := range []Intent{IntentSummary, IntentCuts, IntentWeeklyBudget} {
		got := e.Respond(context.Background(), intent, "", nil)
		if got == "" {
			t.Errorf("%s: empty data must still produce text", intent)
		}
	}
}
