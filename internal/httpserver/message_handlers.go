package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/notepid/club_companion/internal/domain"
)

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread_only"))
	msgs, err := s.messages.List(r.Context(), actor, unreadOnly)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	threads, err := s.messages.Threads(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	otherRole, ok := pathRole(r, "otherType")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid contact type")
		return
	}
	otherID, ok := pathInt(r, "otherID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid contact id")
		return
	}
	conv, err := s.messages.Conversation(r.Context(), actor, domain.Actor{ID: otherID, Role: otherRole})
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	var req domain.SendRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.messages.Send(r.Context(), actor, req)
	if err != nil {
		detail := "Message content cannot be empty"
		if errors.Is(err, domain.ErrNotFound) {
			detail = notFoundDetail(req.RecipientType)
		}
		s.fail(w, r, err, detail)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := CurrentActor(r)
	id, ok := pathInt(r, "messageID")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid message id")
		return
	}
	if err := s.messages.MarkRead(r.Context(), actor, id); err != nil {
		s.fail(w, r, err, "Message not found or you're not authorized to mark it as read")
		return
	}
	writeJSON(w, http.StatusOK, domain.Ack{Message: "Message marked as read"})
}
