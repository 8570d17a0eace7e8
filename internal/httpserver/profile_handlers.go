package httpserver

import (
	"net/http"

	"github.com/notepid/club_companion/internal/avatar"
	"github.com/notepid/club_companion/internal/domain"
)

func notFoundDetail(role domain.Role) string {
	if role == domain.RoleClub {
		return "Club not found"
	}
	return "Student not found"
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	p, err := s.accounts.Profile(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err, notFoundDetail(actor.Role))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	var upd domain.ProfileUpdate
	if !s.decode(w, r, &upd) {
		return
	}
	if actor.Role == domain.RoleStudent {
		upd.Description = nil
	}

	var avatarPath string
	if upd.Avatar != nil && avatar.IsDataURI(*upd.Avatar) {
		p, err := s.avatars.Save(r.Context(), actor, *upd.Avatar)
		if err != nil {
			s.fail(w, r, err, "Invalid profile picture: "+err.Error())
			return
		}
		avatarPath = p
	}

	if _, err := s.accounts.UpdateProfile(r.Context(), actor, upd, avatarPath); err != nil {
		s.fail(w, r, err, notFoundDetail(actor.Role))
		return
	}
	writeJSON(w, http.StatusOK, domain.Ack{Message: "Profile updated successfully"})
}
