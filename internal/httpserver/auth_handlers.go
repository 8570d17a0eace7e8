package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/notepid/club_companion/internal/domain"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(r, "role")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	var req domain.Credentials
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.accounts.Authenticate(r.Context(), role, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "Incorrect email or password")
		return
	}
	token, err := s.tokens.Issue(domain.Actor{ID: id, Role: role})
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	s.log.Info().Str("role", role.String()).Int64("id", id).Msg("login")
	writeJSON(w, http.StatusOK, domain.LoginResult{ID: id, Message: "Login successful", Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(r, "role")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	var req domain.Registration
	if !s.decode(w, r, &req) {
		return
	}
	if role == domain.RoleStudent {
		req.Description = ""
	}

	id, err := s.accounts.Register(r.Context(), role, req)
	if err != nil {
		detail := ""
		if errors.Is(err, domain.ErrConflict) {
			detail = "Email already registered"
		}
		s.fail(w, r, err, detail)
		return
	}

	label := strings.ToUpper(role.String()[:1]) + role.String()[1:]
	s.log.Info().Str("role", role.String()).Int64("id", id).Msg("registered")
	writeJSON(w, http.StatusOK, domain.RegisterResult{ID: id, Message: label + " registered successfully"})
}
