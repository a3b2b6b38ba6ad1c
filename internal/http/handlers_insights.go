package http

import (
	"net/http"
	"time"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/metrics"
)

type dashboardResponse struct {
	Summary          metrics.Summary      `json:"summary"`
	MonthlyRecurring float64              `json:"monthlyRecurring"`
	TopCategories    []core.CategoryTotal `json:"topCategories"`
	FromCache        bool                 `json:"fromCache"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	cacheKey := userID + ":dashboard"

	if payload, ok := s.insightsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	txs, fromCache, err := s.finance.ListTransactions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rules, _, err := s.finance.ListRecurrings(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary := metrics.Summarize(txs)
	resp := dashboardResponse{
		Summary:          summary,
		MonthlyRecurring: metrics.MonthlyRecurringTotal(rules),
		TopCategories:    metrics.TopSpending(summary.ByCategory, 3),
		FromCache:        fromCache,
	}

	s.insightsCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	cacheKey := userID + ":prediction"

	if payload, ok := s.insightsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	txs, _, err := s.finance.ListTransactions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	prediction := metrics.PredictSpending(txs)
	s.insightsCache.Set(cacheKey, prediction)
	writeJSON(w, http.StatusOK, prediction)
}

// handleAffordability grades a planned purchase. Income and fixed expenses
// come from the user's data; the planned amount and current savings come
// from query parameters since savings are not tracked as entries.
func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	amount, err := core.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "a positive amount query parameter is required")
		return
	}
	savings := core.AmountOrZero(r.URL.Query().Get("savings"))

	txs, _, err := s.finance.ListTransactions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rules, _, err := s.finance.ListRecurrings(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary := metrics.Summarize(txs)
	fixed := metrics.MonthlyFixedExpenses(rules)
	writeJSON(w, http.StatusOK, metrics.AffordabilityCheck(amount, summary.Incomes, savings, fixed))
}

func (s *Server) handleSavingsGoal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	goal, err := core.ParseAmount(q.Get("goal"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "a positive goal query parameter is required")
		return
	}
	target, err := core.ParseDate(q.Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "a target date (YYYY-MM-DD) query parameter is required")
		return
	}
	monthly := core.AmountOrZero(q.Get("monthly"))

	writeJSON(w, http.StatusOK, metrics.SavingsGoalProjection(goal, target, monthly, time.Now().UTC()))
}
