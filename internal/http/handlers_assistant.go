package http

import (
	"net/http"
	"strings"

	"github.com/estexav/Flowly/internal/assistant"
)

type assistantRequest struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
}

type assistantResponse struct {
	Reply string `json:"reply"`
}

// handleAssistant answers a guidance request. The engine never fails: when
// the model is unreachable the reply comes from local heuristics instead.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	intent := assistant.Intent(strings.TrimSpace(req.Intent))
	if intent == "" {
		intent = assistant.IntentChat
	}
	if !intent.Valid() {
		writeError(w, http.StatusBadRequest, "unknown intent: "+req.Intent)
		return
	}

	txs, _, err := s.finance.ListTransactions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	reply := s.assistant.Respond(r.Context(), intent, req.Message, txs)
	writeJSON(w, http.StatusOK, assistantResponse{Reply: reply})
}
