package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estexav/Flowly/internal/core"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/metrics"
)

// Engine answers guidance intents. The remote generator is optional; with a
// nil generator every answer comes from the heuristic templates.
type Engine struct {
	generator Generator
	timeout   time.Duration
	logger    *applog.Logger
}

func NewEngine(generator Generator, timeout time.Duration, logger *applog.Logger) *Engine {
	return &Engine{
		generator: generator,
		timeout:   timeout,
		logger:    logger.WithComponent(applog.ComponentAssistant),
	}
}

// Respond produces the answer for an intent. It never fails: any generator
// error is masked by the deterministic fallback, which embeds the same
// summary figures.
func (e *Engine) Respond(ctx context.Context, intent Intent, message string, transactions []core.Transaction) string {
	summary := metrics.Summarize(transactions)

	if e.generator != nil {
		prompt := e.buildPrompt(intent, message, summary, transactions)
		genCtx, cancel := context.WithTimeout(ctx, e.timeout)
		text, err := e.generator.Generate(genCtx, prompt, GenerateOptions{
			Temperature: 0.7,
			MaxTokens:   1024,
		})
		cancel()
		if err == nil {
			return text
		}
		e.logger.WarnContext(ctx, "Generation failed, using heuristic fallback",
			applog.FieldIntent, intent,
			applog.FieldError, err)
	}

	return e.fallback(intent, summary, transactions)
}

func (e *Engine) fallback(intent Intent, summary metrics.Summary, transactions []core.Transaction) string {
	switch intent {
	case IntentSummary:
		return heuristicSummary(summary)
	case IntentCuts:
		return heuristicCuts(summary)
	case IntentPurchase:
		return heuristicPurchase(summary)
	case IntentWeeklyBudget:
		return heuristicWeeklyBudget(metrics.PredictSpending(transactions))
	default:
		return heuristicChat(summary)
	}
}

func (e *Engine) buildPrompt(intent Intent, message string, s metrics.Summary, transactions []core.Transaction) string {
	catLines := categoryLines(s)

	switch intent {
	case IntentSummary:
		return fmt.Sprintf(
			"Act as a financial advisor and give a concise monthly summary. "+
				"Income $%.2f, expenses $%.2f, disposable $%.2f. "+
				"By category: %s. "+
				"Include 3 observations and 3 clear recommendations with figures.",
			s.Incomes, s.Expenses, s.Disposable, catLines)
	case IntentCuts:
		return fmt.Sprintf(
			"Explain in simple terms where to cut spending without much impact. "+
				"Top categories: %s. "+
				"Give percentages and estimated savings in a short list.",
			catLines)
	case IntentPurchase:
		return fmt.Sprintf(
			"Answer simply how much is safe to spend on a purchase. "+
				"Income $%.2f, expenses $%.2f, disposable $%.2f. "+
				"Include a safe amount and a threshold to avoid.",
			s.Incomes, s.Expenses, s.Disposable)
	case IntentWeeklyBudget:
		pred := metrics.PredictSpending(transactions)
		return fmt.Sprintf(
			"Suggest a weekly budget per category based on current spending with a "+
				"conservative adjustment. By category: %s. Total expenses $%.2f. "+
				"Include numeric weekly limits and control tips.",
			categoryLines(pred.Summary), s.Expenses)
	default:
		return fmt.Sprintf(
			"You are a responsible financial advisor. Answer with concrete steps. "+
				"Context: income $%.2f, expenses $%.2f, disposable $%.2f. By category: %s. "+
				"User question: %q. "+
				"Include estimated figures where relevant and avoid suggesting risky debt.",
			s.Incomes, s.Expenses, s.Disposable, catLines, message)
	}
}

func categoryLines(s metrics.Summary) string {
	top := metrics.TopSpending(s.ByCategory, len(s.ByCategory))
	parts := make([]string, 0, len(top))
	for _, ct := range top {
		parts = append(parts, fmt.Sprintf("%s: $%.2f", ct.Category, ct.Total))
	}
	if len(parts) == 0 {
		return "no data"
	}
	return strings.Join(parts, ", ")
}
