package httpserver

import (
	"net/http"

	"github.com/notepid/club_companion/internal/domain"
)

func (s *Server) handleListClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := s.clubs.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

func (s *Server) handleGetClub(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "clubID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid club id")
		return
	}
	c, err := s.clubs.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Club not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	members, err := s.clubs.Members(r.Context(), actor.ID)
	if err != nil {
		s.fail(w, r, err, "Club not found")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleSavedClubs(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	clubs, err := s.clubs.Saved(r.Context(), actor.ID)
	if err != nil {
		s.fail(w, r, err, "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

func (s *Server) handleSaveClub(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	clubID, ok := pathInt(r, "clubID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid club id")
		return
	}
	res, err := s.clubs.Save(r.Context(), actor.ID, clubID)
	if err != nil {
		s.fail(w, r, err, "Club not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUnsaveClub(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	clubID, ok := pathInt(r, "clubID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid club id")
		return
	}
	res, err := s.clubs.Unsave(r.Context(), actor.ID, clubID)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleIsClubSaved(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	clubID, ok := pathInt(r, "clubID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid club id")
		return
	}
	saved, err := s.clubs.IsSaved(r.Context(), actor.ID, clubID)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_saved": saved})
}

func (s *Server) handleListSocialLinks(w http.ResponseWriter, r *http.Request) {
	clubID, ok := pathInt(r, "clubID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid club id")
		return
	}
	links, err := s.clubs.SocialLinks(r.Context(), clubID)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// ownsClub reports whether the authenticated actor is the club itself.
func ownsClub(r *http.Request, clubID int64) bool {
	actor, ok := CurrentActor(r)
	return ok && actor.Role == domain.RoleClub && actor.ID == clubID
}

func (s *Server) handleAddSocialLink(w http.ResponseWriter, r *http.Request) {
	var in domain.SocialLinkInput
	if !s.decode(w, r, &in) {
		return
	}
	if !ownsClub(r, in.ClubID) {
		writeDetail(w, http.StatusForbidden, "Not authorized for this club")
		return
	}
	link, err := s.clubs.AddSocialLink(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "Club not found")
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleUpdateSocialLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "linkID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid social media id")
		return
	}
	var in domain.SocialLinkInput
	if !s.decode(w, r, &in) {
		return
	}
	existing, err := s.clubs.SocialLink(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Social media link not found")
		return
	}
	if !ownsClub(r, existing.ClubID) {
		writeDetail(w, http.StatusForbidden, "Not authorized for this club")
		return
	}
	link, err := s.clubs.UpdateSocialLink(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err, "Social media link not found")
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) handleDeleteSocialLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "linkID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid social media id")
		return
	}
	existing, err := s.clubs.SocialLink(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Social media link not found")
		return
	}
	if !ownsClub(r, existing.ClubID) {
		writeDetail(w, http.StatusForbidden, "Not authorized for this club")
		return
	}
	if err := s.clubs.DeleteSocialLink(r.Context(), id); err != nil {
		s.fail(w, r, err, "Social media link not found")
		return
	}
	writeJSON(w, http.StatusOK, domain.Ack{Message: "Social media link deleted successfully"})
}
