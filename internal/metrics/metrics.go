// Package metrics computes the derived figures shown on the dashboard and
// fed into assistant prompts. Everything here is pure: inputs are lists the
// caller already fetched, outputs depend on nothing else.
package metrics

import (
	"sort"
	"time"

	"github.com/estexav/Flowly/internal/core"
)

// Summary aggregates a transaction list into the headline figures.
type Summary struct {
	Incomes    float64            `json:"incomes"`
	Expenses   float64            `json:"expenses"`
	Disposable float64            `json:"disposable"`
	ByCategory map[string]float64 `json:"byCategory"`
}

// Summarize buckets expense totals per category and computes disposable
// income. Entries with an unknown type count toward neither side.
func Summarize(transactions []core.Transaction) Summary {
	s := Summary{ByCategory: map[string]float64{}}
	for _, tx := range transactions {
		switch tx.Type {
		case core.Income:
			s.Incomes += tx.Amount
		case core.Expense:
			s.Expenses += tx.Amount
			cat := tx.Category
			if cat == "" {
				cat = core.DefaultCategory
			}
			s.ByCategory[cat] += tx.Amount
		}
	}
	s.Disposable = s.Incomes - s.Expenses
	return s
}

// Frequency multipliers to a monthly-equivalent amount.
var monthlyMultipliers = map[core.Frequency]float64{
	core.Weekly:    4.33,
	core.Biweekly:  2,
	core.Monthly:   1,
	core.Bimonthly: 1.0 / 2,
	core.Quarterly: 1.0 / 3,
	core.Annual:    1.0 / 12,
}

// NormalizeRecurring converts a rule's amount to its monthly equivalent.
// Unrecognized frequencies behave as Monthly.
func NormalizeRecurring(rule core.RecurringRule) float64 {
	if m, ok := monthlyMultipliers[rule.Frequency]; ok {
		return rule.Amount * m
	}
	return rule.Amount
}

// MonthlyRecurringTotal sums the monthly equivalents of all active rules.
func MonthlyRecurringTotal(rules []core.RecurringRule) float64 {
	var total float64
	for _, r := range rules {
		if r.Active {
			total += NormalizeRecurring(r)
		}
	}
	return total
}

// MonthlyFixedExpenses sums the monthly equivalents of active Expense rules
// in non-discretionary categories. Income rules and discretionary spending
// never count toward the affordability margin.
func MonthlyFixedExpenses(rules []core.RecurringRule) float64 {
	var total float64
	for _, r := range rules {
		if r.Active && r.Type == core.Expense && core.IsFixedCategory(r.Category) {
			total += NormalizeRecurring(r)
		}
	}
	return total
}

// Prediction is the next-month outlook derived from current spending.
type Prediction struct {
	Summary         Summary            `json:"summary"`
	Distribution    map[string]float64 `json:"distribution"`
	SuggestedBudget map[string]float64 `json:"suggestedBudget"`
}

// PredictSpending computes each category's share of total expenses and a
// suggested budget that trims the two biggest categories by 10%. The share
// denominator is floored at 1.0 so an empty month does not divide by zero.
func PredictSpending(transactions []core.Transaction) Prediction {
	summary := Summarize(transactions)
	total := summary.Expenses
	if total < 1.0 {
		total = 1.0
	}

	dist := map[string]float64{}
	budget := map[string]float64{}
	reduce := topCategories(summary.ByCategory, 2)
	for cat, val := range summary.ByCategory {
		dist[cat] = val / total
		if reduce[cat] {
			budget[cat] = val * 0.9
		} else {
			budget[cat] = val
		}
	}
	return Prediction{Summary: summary, Distribution: dist, SuggestedBudget: budget}
}

// TopSpending returns up to n (category, total) pairs sorted by descending
// total, ties broken by name so output is stable.
func TopSpending(byCategory map[string]float64, n int) []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0, len(byCategory))
	for cat, val := range byCategory {
		out = append(out, core.CategoryTotal{Category: cat, Total: val})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topCategories(byCategory map[string]float64, n int) map[string]bool {
	set := map[string]bool{}
	for _, ct := range TopSpending(byCategory, n) {
		set[ct.Category] = true
	}
	return set
}

// AffordabilityStatus grades a planned spend against monthly income.
type AffordabilityStatus string

const (
	Safe           AffordabilityStatus = "Safe"
	Caution        AffordabilityStatus = "Caution"
	NotRecommended AffordabilityStatus = "NotRecommended"
)

type Affordability struct {
	Status          AffordabilityStatus `json:"status"`
	PercentOfIncome float64             `json:"percentOfIncome"`
	NewBalance      float64             `json:"newBalance"`
	Margin          float64             `json:"margin"`
}

// AffordabilityCheck grades spendAmount: up to 3% of income is Safe, up to
// 8% is Caution, beyond that NotRecommended. Zero income grades as Safe
// only for a zero spend ratio.
func AffordabilityCheck(spendAmount, incomes, savings, fixedExpenses float64) Affordability {
	var pct float64
	if incomes > 0 {
		pct = spendAmount / incomes
	}

	status := NotRecommended
	switch {
	case pct <= 0.03:
		status = Safe
	case pct <= 0.08:
		status = Caution
	}

	newBalance := savings - spendAmount
	if newBalance < 0 {
		newBalance = 0
	}

	return Affordability{
		Status:          status,
		PercentOfIncome: pct,
		NewBalance:      newBalance,
		Margin:          newBalance - fixedExpenses,
	}
}

type SavingsProjection struct {
	MonthsRemaining int     `json:"monthsRemaining"`
	RequiredMonthly float64 `json:"requiredMonthly"`
	Achievable      bool    `json:"achievable"`
	ProjectedTotal  float64 `json:"projectedTotal"`
}

// SavingsGoalProjection answers whether saving monthlySavings per month
// reaches goalAmount by targetDate. At least one month always remains, so a
// past or same-month target never divides by zero.
func SavingsGoalProjection(goalAmount float64, targetDate core.Date, monthlySavings float64, now time.Time) SavingsProjection {
	months := targetDate.MonthsUntil(now)
	if months < 1 {
		months = 1
	}
	required := goalAmount / float64(months)
	return SavingsProjection{
		MonthsRemaining: months,
		RequiredMonthly: required,
		Achievable:      monthlySavings >= required,
		ProjectedTotal:  monthlySavings * float64(months),
	}
}
