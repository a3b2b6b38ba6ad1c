package http

import (
	"encoding/json"
	"net/http"

	"github.com/estexav/Flowly/internal/core"
)

type transactionListResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	FromCache    bool               `json:"fromCache"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := req.toTransaction(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome, err := s.finance.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)

	// 202 signals the entry was accepted locally but has not reached the
	// ledger yet.
	status := http.StatusCreated
	if !outcome.Synced {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	txs, fromCache, err := s.finance.ListTransactions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionListResponse{Transactions: txs, FromCache: fromCache})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.finance.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := buildPatch(body, transactionPatchFields)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.finance.UpdateTransaction(r.Context(), userID, r.PathValue("id"), patch); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if err := s.finance.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateInsights(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	result, err := s.finance.SyncPending(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.Deferred {
		writeJSON(w, http.StatusAccepted, result)
		return
	}
	if result.SyncedCount > 0 {
		s.invalidateInsights(userID)
	}
	writeJSON(w, http.StatusOK, result)
}
