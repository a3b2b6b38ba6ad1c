package http

import (
	"net/http"
	"strings"

	applog "github.com/estexav/Flowly/internal/log"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b credentialsBody) validate() string {
	if strings.TrimSpace(b.Email) == "" || !strings.Contains(b.Email, "@") {
		return "a valid email is required"
	}
	if b.Password == "" {
		return "a password is required"
	}
	return ""
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := body.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	session, err := s.auth.SignUp(r.Context(), body.Email, body.Password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Sign up failed", applog.FieldError, err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := body.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	session, err := s.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Login failed", applog.FieldError, err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
