package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/estexav/Flowly/internal/core"
)

const tolerance = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func tx(amount float64, typ core.EntryType, category string) core.Transaction {
	return core.Transaction{Amount: amount, Type: typ, Category: category}
}

func TestSummarize(t *testing.T) {
	txs := []core.Transaction{
		tx(1000, core.Income, ""),
		tx(300, core.Expense, "Food"),
		tx(200, core.Expense, "Transport"),
	}

	got := Summarize(txs)
	if !almostEqual(got.Incomes, 1000) || !almostEqual(got.Expenses, 500) || !almostEqual(got.Disposable, 500) {
		t.Fatalf("summary = %+v", got)
	}
	if !almostEqual(got.ByCategory["Food"], 300) || !almostEqual(got.ByCategory["Transport"], 200) {
		t.Fatalf("byCategory = %+v", got.ByCategory)
	}
}

func TestSummarize_UnknownTypeIgnored(t *testing.T) {
	got := Summarize([]core.Transaction{
		tx(1000, core.Income, ""),
		tx(50, core.EntryType("Transfer"), "Other"),
	})
	if !almostEqual(got.Incomes, 1000) || !almostEqual(got.Expenses, 0) {
		t.Fatalf("unknown type must contribute to neither side: %+v", got)
	}
}

func TestSummarize_Identities(t *testing.T) {
	txs := []core.Transaction{
		tx(1234.56, core.Income, ""),
		tx(78.9, core.Expense, "Food"),
		tx(0.01, core.Expense, "Food"),
		tx(333.33, core.Expense, "Health"),
		tx(20, core.Income, ""),
	}

	got := Summarize(txs)
	if !almostEqual(got.Incomes-got.Expenses, got.Disposable) {
		t.Errorf("incomes - expenses != disposable: %+v", got)
	}
	var catSum float64
	for _, v := range got.ByCategory {
		catSum += v
	}
	if !almostEqual(catSum, got.Expenses) {
		t.Errorf("sum(byCategory) = %f, expenses = %f", catSum, got.Expenses)
	}
}

func TestSummarize_EmptyCategoryBucketsAsDefault(t *testing.T) {
	got := Summarize([]core.Transaction{tx(10, core.Expense, "")})
	if !almostEqual(got.ByCategory[core.DefaultCategory], 10) {
		t.Fatalf("empty category must bucket under %s: %+v", core.DefaultCategory, got.ByCategory)
	}
}

func TestNormalizeRecurring(t *testing.T) {
	tests := []struct {
		frequency core.Frequency
		amount    float64
		want      float64
	}{
		{core.Weekly, 100, 433},
		{core.Biweekly, 100, 200},
		{core.Monthly, 100, 100},
		{core.Bimonthly, 100, 50},
		{core.Quarterly, 300, 100},
		{core.Annual, 1200, 100},
		{core.Frequency("Fortnightly"), 100, 100}, // unknown behaves as Monthly
	}
	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			got := NormalizeRecurring(core.RecurringRule{Amount: tt.amount, Frequency: tt.frequency})
			if !almostEqual(got, tt.want) {
				t.Fatalf("NormalizeRecurring(%s, %f) = %f, want %f", tt.frequency, tt.amount, got, tt.want)
			}
		})
	}
}

func TestNormalizeRecurring_LinearInAmount(t *testing.T) {
	for _, f := range []core.Frequency{core.Weekly, core.Biweekly, core.Monthly, core.Bimonthly, core.Quarterly, core.Annual} {
		base := NormalizeRecurring(core.RecurringRule{Amount: 37.5, Frequency: f})
		doubled := NormalizeRecurring(core.RecurringRule{Amount: 75, Frequency: f})
		if !almostEqual(doubled, 2*base) {
			t.Errorf("%s: normalize(2x) = %f, want %f", f, doubled, 2*base)
		}
	}
}

func TestMonthlyRecurringTotal_SkipsInactive(t *testing.T) {
	rules := []core.RecurringRule{
		{Amount: 100, Frequency: core.Monthly, Active: true},
		{Amount: 50, Frequency: core.Monthly, Active: false},
	}
	if got := MonthlyRecurringTotal(rules); !almostEqual(got, 100) {
		t.Fatalf("MonthlyRecurringTotal = %f, want 100", got)
	}
}

func TestMonthlyFixedExpenses_OnlyNonDiscretionaryExpenses(t *testing.T) {
	rules := []core.RecurringRule{
		{Amount: 800, Type: core.Expense, Category: "Housing", Frequency: core.Monthly, Active: true},
		{Amount: 120, Type: core.Expense, Category: "Utilities", Frequency: core.Monthly, Active: true},
		// A recurring salary must not count as a fixed expense
		{Amount: 2000, Type: core.Income, Category: "Other", Frequency: core.Monthly, Active: true},
		// Discretionary spending is not fixed
		{Amount: 60, Type: core.Expense, Category: "Entertainment", Frequency: core.Monthly, Active: true},
		// Inactive rules never count
		{Amount: 300, Type: core.Expense, Category: "Debts", Frequency: core.Monthly, Active: false},
	}
	if got := MonthlyFixedExpenses(rules); !almostEqual(got, 920) {
		t.Fatalf("MonthlyFixedExpenses = %f, want 920", got)
	}
}

func TestPredictSpending(t *testing.T) {
	txs := []core.Transaction{
		tx(500, core.Expense, "Food"),
		tx(300, core.Expense, "Transport"),
		tx(200, core.Expense, "Entertainment"),
	}

	got := PredictSpending(txs)
	if !almostEqual(got.Distribution["Food"], 0.5) || !almostEqual(got.Distribution["Transport"], 0.3) {
		t.Fatalf("distribution = %+v", got.Distribution)
	}
	// Top two trimmed by 10%, the rest untouched
	if !almostEqual(got.SuggestedBudget["Food"], 450) || !almostEqual(got.SuggestedBudget["Transport"], 270) {
		t.Fatalf("suggested budget = %+v", got.SuggestedBudget)
	}
	if !almostEqual(got.SuggestedBudget["Entertainment"], 200) {
		t.Fatalf("non-top categories must stay unchanged: %+v", got.SuggestedBudget)
	}
}

func TestPredictSpending_NoExpenses(t *testing.T) {
	got := PredictSpending([]core.Transaction{tx(1000, core.Income, "")})
	if len(got.Distribution) != 0 || len(got.SuggestedBudget) != 0 {
		t.Fatalf("empty expense month must yield empty maps: %+v", got)
	}
}

func TestTopSpending_StableOrder(t *testing.T) {
	by := map[string]float64{"Food": 100, "Transport": 100, "Health": 50}
	got := TopSpending(by, 2)
	if len(got) != 2 || got[0].Category != "Food" || got[1].Category != "Transport" {
		t.Fatalf("ties must break by name: %+v", got)
	}
}

func TestAffordabilityCheck(t *testing.T) {
	tests := []struct {
		name       string
		spend      float64
		incomes    float64
		savings    float64
		fixed      float64
		wantStatus AffordabilityStatus
		wantBal    float64
		wantMargin float64
	}{
		{"caution at five percent", 50, 1000, 300, 100, Caution, 250, 150},
		{"safe at three percent", 30, 1000, 300, 100, Safe, 270, 170},
		{"not recommended above eight", 100, 1000, 300, 100, NotRecommended, 200, 100},
		{"zero income is safe ratio", 50, 0, 300, 100, Safe, 250, 150},
		{"balance floored at zero", 500, 1000, 300, 100, NotRecommended, 0, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AffordabilityCheck(tt.spend, tt.incomes, tt.savings, tt.fixed)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if !almostEqual(got.NewBalance, tt.wantBal) || !almostEqual(got.Margin, tt.wantMargin) {
				t.Errorf("balance/margin = %f/%f, want %f/%f", got.NewBalance, got.Margin, tt.wantBal, tt.wantMargin)
			}
		})
	}
}

func TestSavingsGoalProjection(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	got := SavingsGoalProjection(1200, core.NewDate(2024, 9, 15), 150, now)
	if got.MonthsRemaining != 6 {
		t.Fatalf("monthsRemaining = %d, want 6", got.MonthsRemaining)
	}
	if !almostEqual(got.RequiredMonthly, 200) || got.Achievable || !almostEqual(got.ProjectedTotal, 900) {
		t.Fatalf("projection = %+v", got)
	}
}

func TestSavingsGoalProjection_PastTargetClampsToOneMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	got := SavingsGoalProjection(100, core.NewDate(2023, 1, 1), 100, now)
	if got.MonthsRemaining != 1 {
		t.Fatalf("monthsRemaining = %d, want 1", got.MonthsRemaining)
	}
	if !got.Achievable {
		t.Fatal("100/month against a 100 goal in one month must be achievable")
	}
}
