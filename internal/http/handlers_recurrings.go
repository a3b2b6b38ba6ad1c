package http

import (
	"encoding/json"
	"net/http"

	"github.com/estexav/Flowly/internal/core"
)

type recurringListResponse struct {
	Recurrings []core.RecurringRule `json:"recurrings"`
	FromCache  bool                 `json:"fromCache"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := req.toRule(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome, err := s.finance.CreateRecurring(r.Context(), rule)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)

	status := http.StatusCreated
	if !outcome.Synced {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome)
}

func (s *Server) handleListRecurrings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	rules, fromCache, err := s.finance.ListRecurrings(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rules == nil {
		rules = []core.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, recurringListResponse{Recurrings: rules, FromCache: fromCache})
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := buildPatch(body, recurringPatchFields)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.finance.UpdateRecurring(r.Context(), userID, r.PathValue("id"), patch); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if err := s.finance.DeleteRecurring(r.Context(), userID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)
	w.WriteHeader(http.StatusNoContent)
}
