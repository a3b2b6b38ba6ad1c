package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/estexav/Flowly/internal/metrics"
)

// Heuristic fallback templates. They embed the same figures the prompts
// carry, formatted to two decimals, and never return an empty string.

func heuristicSummary(s metrics.Summary) string {
	top := metrics.TopSpending(s.ByCategory, 3)
	parts := make([]string, 0, len(top))
	for _, ct := range top {
		parts = append(parts, fmt.Sprintf("%s ($%.2f)", ct.Category, ct.Total))
	}
	topLine := strings.Join(parts, ", ")
	if topLine == "" {
		topLine = "no data yet"
	}

	var b strings.Builder
	b.WriteString("Monthly summary based on your data:\n")
	fmt.Fprintf(&b, "- Income: $%.2f\n", s.Incomes)
	fmt.Fprintf(&b, "- Expenses: $%.2f\n", s.Expenses)
	fmt.Fprintf(&b, "- Disposable: $%.2f\n", s.Disposable)
	fmt.Fprintf(&b, "- Highest spending: %s\n", topLine)
	b.WriteString("Set per-category limits, review subscriptions, and compare unit prices.")
	return b.String()
}

func heuristicCuts(s metrics.Summary) string {
	top := metrics.TopSpending(s.ByCategory, 2)
	cuts := []float64{0.10, 0.05}

	var b strings.Builder
	b.WriteString("Easy cuts with little impact:\n")
	var totalSave float64
	for i, ct := range top {
		save := ct.Total * cuts[i]
		totalSave += save
		fmt.Fprintf(&b, "- %s: cut %d%% to save $%.2f\n", ct.Category, int(cuts[i]*100), save)
	}
	if len(top) == 0 {
		b.WriteString("- No spending data yet\n")
	}
	fmt.Fprintf(&b, "Estimated monthly savings: $%.2f. Cancel unused subscriptions and buy per unit.", totalSave)
	return b.String()
}

func heuristicPurchase(s metrics.Summary) string {
	safe := s.Disposable * 0.25
	if safe < 0 {
		safe = 0
	}
	avoid := s.Disposable * 0.60
	if avoid < 0 {
		avoid = 0
	}

	var b strings.Builder
	b.WriteString("Purchase guidance:\n")
	fmt.Fprintf(&b, "- Monthly disposable: $%.2f\n", s.Disposable)
	fmt.Fprintf(&b, "- Safe amount to spend: $%.2f\n", safe)
	fmt.Fprintf(&b, "- Avoid purchases above $%.2f; plan and save instead.", avoid)
	return b.String()
}

func heuristicWeeklyBudget(pred metrics.Prediction) string {
	cats := make([]string, 0, len(pred.SuggestedBudget))
	for cat := range pred.SuggestedBudget {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString("Suggested weekly budget per category:\n")
	if len(cats) == 0 {
		b.WriteString("- No spending data yet\n")
	}
	for _, cat := range cats {
		fmt.Fprintf(&b, "- %s: $%.2f/week\n", cat, pred.SuggestedBudget[cat]/4.0)
	}
	b.WriteString("Track weekly limits and flag anything past 80% of its cap.")
	return b.String()
}

func heuristicChat(s metrics.Summary) string {
	small := tierAmount(s.Disposable, 0.05)
	medium := tierAmount(s.Disposable, 0.15)
	large := tierAmount(s.Disposable, 0.30)

	var b strings.Builder
	b.WriteString("General advice based on your data:\n")
	fmt.Fprintf(&b, "- Monthly disposable: $%.2f.\n", s.Disposable)
	fmt.Fprintf(&b, "- Prudent ranges: small $%.2f, medium $%.2f, large $%.2f.\n", small, medium, large)
	b.WriteString("- Set category limits, review subscriptions, and compare unit prices.\n")
	b.WriteString("- Avoid debt unless it is 0% interest with a clear payoff plan.")
	return b.String()
}

func tierAmount(disposable, ratio float64) float64 {
	v := disposable * ratio
	if v < 0 {
		return 0
	}
	return v
}
