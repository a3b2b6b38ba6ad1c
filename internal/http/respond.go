package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/estexav/Flowly/internal/authn"
	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps validation and lookup failures to HTTP statuses.
// Anything unrecognized is treated as an internal failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case services.IsNotFound(err):
		writeError(w, http.StatusNotFound, "entry not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrDescriptionTooLong) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidFrequency) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrEmptyUserID)
}

// writeAuthError maps identity provider failures to HTTP statuses. The
// invalid-credential cases share one message so the response does not
// reveal whether an account exists.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authn.ErrEmailExists):
		writeError(w, http.StatusConflict, "an account with this email already exists")
	case errors.Is(err, authn.ErrEmailNotFound), errors.Is(err, authn.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, authn.ErrUserDisabled):
		writeError(w, http.StatusForbidden, "this account has been disabled")
	case errors.Is(err, authn.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "password is too weak")
	default:
		writeError(w, http.StatusBadGateway, "authentication service unavailable")
	}
}
